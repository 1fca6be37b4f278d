package command

import (
	"strconv"
	"strings"

	"github.com/Kushalrock/reposignal-app/internal/domain"
)

// TriggerToken introduces every command. Text without it is ignored entirely.
const TriggerToken = "/reposignal"

// issueTypes is the closed argument domain for `type T`.
var issueTypes = map[string]domain.IssueType{
	"docs":     domain.IssueTypeDocs,
	"bug":      domain.IssueTypeBug,
	"feature":  domain.IssueTypeFeature,
	"refactor": domain.IssueTypeRefactor,
	"test":     domain.IssueTypeTest,
	"infra":    domain.IssueTypeInfra,
}

// Parse scans free-form comment text and returns every command it contains,
// in order of appearance. Keywords match case-insensitively. Arguments outside
// their domain (a rating not in 1..5, an unknown type name) make that command
// a non-match, never an error: the scanner simply moves on. A single comment
// may carry several independent commands, each introduced by the trigger.
func Parse(text string) []domain.Command {
	s := &scanner{tokens: strings.Fields(text)}

	var commands []domain.Command
	for !s.done() {
		if !strings.EqualFold(s.next(), TriggerToken) {
			continue
		}
		// After a trigger, consume as many sub-commands as the token
		// stream yields; the first unrecognized token ends the run.
		for {
			cmd, ok := s.subCommand()
			if !ok {
				break
			}
			commands = append(commands, cmd)
		}
	}

	return commands
}

// scanner walks the whitespace-split token stream.
type scanner struct {
	tokens []string
	pos    int
}

func (s *scanner) done() bool {
	return s.pos >= len(s.tokens)
}

func (s *scanner) next() string {
	tok := s.tokens[s.pos]
	s.pos++
	return tok
}

func (s *scanner) peek() (string, bool) {
	if s.done() {
		return "", false
	}
	return s.tokens[s.pos], true
}

// subCommand attempts to parse one sub-command at the current position.
// On failure nothing is consumed beyond what definitely cannot start a
// new command, so a following trigger token is still found.
func (s *scanner) subCommand() (domain.Command, bool) {
	keyword, ok := s.peek()
	if !ok {
		return domain.Command{}, false
	}

	switch strings.ToLower(keyword) {
	case "difficulty":
		s.pos++
		if n, ok := s.rating(); ok {
			return domain.Command{Kind: domain.CommandSetDifficulty, Value: n}, true
		}
		return domain.Command{}, false

	case "type":
		s.pos++
		if t, ok := s.issueType(); ok {
			return domain.Command{Kind: domain.CommandSetType, Type: t}, true
		}
		return domain.Command{}, false

	case "hide":
		s.pos++
		return domain.Command{Kind: domain.CommandHide}, true

	case "rate":
		s.pos++
		return s.rateCommand()
	}

	return domain.Command{}, false
}

func (s *scanner) rateCommand() (domain.Command, bool) {
	dimension, ok := s.peek()
	if !ok {
		return domain.Command{}, false
	}

	var kind domain.CommandKind
	switch strings.ToLower(dimension) {
	case "difficulty":
		kind = domain.CommandRateDifficulty
	case "responsiveness":
		kind = domain.CommandRateResponsiveness
	default:
		return domain.Command{}, false
	}
	s.pos++

	if n, ok := s.rating(); ok {
		return domain.Command{Kind: kind, Value: n}, true
	}
	return domain.Command{}, false
}

// rating consumes the next token iff it is an integer in [1,5].
func (s *scanner) rating() (int, bool) {
	tok, ok := s.peek()
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 1 || n > 5 {
		return 0, false
	}
	s.pos++
	return n, true
}

// issueType consumes the next token iff it names a known issue type.
func (s *scanner) issueType() (domain.IssueType, bool) {
	tok, ok := s.peek()
	if !ok {
		return "", false
	}
	t, known := issueTypes[strings.ToLower(tok)]
	if !known {
		return "", false
	}
	s.pos++
	return t, true
}
