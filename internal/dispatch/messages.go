package dispatch

import (
	"fmt"
	"strings"

	"github.com/Kushalrock/reposignal-app/internal/backend"
)

// All bot-authored text lives here. Every one of these messages is
// ephemeral: each post is paired with a cleanup obligation by the caller.

func classificationConfirmation(p backend.ClassifyIssueParams) string {
	var changes []string
	if p.Difficulty != nil {
		changes = append(changes, fmt.Sprintf("difficulty set to %d", *p.Difficulty))
	}
	if p.IssueType != nil {
		changes = append(changes, fmt.Sprintf("type set to %s", *p.IssueType))
	}
	if p.Hidden != nil && *p.Hidden {
		changes = append(changes, "issue hidden from listings")
	}

	return fmt.Sprintf("Done: %s. This message will remove itself shortly.", strings.Join(changes, ", "))
}

func classificationSummary(p backend.ClassifyIssueParams) string {
	var fields []string
	if p.Difficulty != nil {
		fields = append(fields, fmt.Sprintf("difficulty=%d", *p.Difficulty))
	}
	if p.IssueType != nil {
		fields = append(fields, fmt.Sprintf("type=%s", *p.IssueType))
	}
	if p.Hidden != nil {
		fields = append(fields, fmt.Sprintf("hidden=%t", *p.Hidden))
	}
	return strings.Join(fields, " ")
}

func feedbackConfirmation(p backend.FeedbackParams) string {
	var parts []string
	if p.DifficultyRating != nil {
		parts = append(parts, fmt.Sprintf("difficulty %d/5", *p.DifficultyRating))
	}
	if p.ResponsivenessRating != nil {
		parts = append(parts, fmt.Sprintf("responsiveness %d/5", *p.ResponsivenessRating))
	}

	return fmt.Sprintf("Thanks for rating this pull request (%s). Your feedback is recorded anonymously. This message will remove itself shortly.", strings.Join(parts, ", "))
}

func feedbackSummary(p backend.FeedbackParams) string {
	var fields []string
	if p.DifficultyRating != nil {
		fields = append(fields, fmt.Sprintf("difficulty=%d", *p.DifficultyRating))
	}
	if p.ResponsivenessRating != nil {
		fields = append(fields, fmt.Sprintf("responsiveness=%d", *p.ResponsivenessRating))
	}
	return strings.Join(fields, " ")
}

func issueOpenedNudge() string {
	return "Maintainers: you can classify this issue with `/reposignal difficulty 1-5`, " +
		"`/reposignal type docs|bug|feature|refactor|test|infra` or `/reposignal hide`. " +
		"This message will remove itself in a few minutes."
}

func mergeFeedbackNudge() string {
	return "Congrats on the merge! If you'd like, rate this contribution experience with " +
		"`/reposignal rate difficulty 1-5` and `/reposignal rate responsiveness 1-5`. " +
		"Ratings are anonymous. This message will remove itself in an hour."
}
