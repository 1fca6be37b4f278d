package domain

// CommandKind identifies which sub-grammar a parsed command came from.
type CommandKind string

const (
	CommandSetDifficulty      CommandKind = "set_difficulty"
	CommandSetType            CommandKind = "set_type"
	CommandHide               CommandKind = "hide"
	CommandRateDifficulty     CommandKind = "rate_difficulty"
	CommandRateResponsiveness CommandKind = "rate_responsiveness"
)

// IssueType is the closed classification enum accepted by `type T`.
type IssueType string

const (
	IssueTypeDocs     IssueType = "docs"
	IssueTypeBug      IssueType = "bug"
	IssueTypeFeature  IssueType = "feature"
	IssueTypeRefactor IssueType = "refactor"
	IssueTypeTest     IssueType = "test"
	IssueTypeInfra    IssueType = "infra"
)

// Command is a parsed, validated command. Immutable once parsed;
// it carries no identity, only payload.
type Command struct {
	Kind  CommandKind
	Value int       // 1..5 for difficulty and rate commands
	Type  IssueType // set only for CommandSetType
}

// IsRate reports whether the command belongs to the contributor sub-grammar.
func (c Command) IsRate() bool {
	return c.Kind == CommandRateDifficulty || c.Kind == CommandRateResponsiveness
}
