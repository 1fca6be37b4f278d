package domain

// LogEntry is a write-once audit record produced as a side effect of
// dispatch and of cleanup completion. Entries for contributor-role
// actors never carry identity fields.
type LogEntry struct {
	ActorRole  Role
	ActorLogin *string // absent for contributor entries
	ActorID    *int64  // absent for contributor entries
	Action     string
	EntityRef  string
	Context    string
}
