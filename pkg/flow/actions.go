package flow

import (
	"fmt"
	"strings"

	"github.com/JonnyTran/heydev/pkg/action"
	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/schema"
)

// Gated action names, in pipeline order.
const (
	ActionSetRepo        = "set_github_repo"
	ActionSetDateRange   = "set_date_range"
	ActionSelectTopic    = "select_topic"
	ActionConfirmContent = "confirm_content"
)

// Confirmation sentinels for the confirm_content gate.
const (
	ResponseConfirm = "CONFIRM"
	ResponseCancel  = "CANCEL"
)

// DefaultRegistry declares the four gated actions of the publishing
// pipeline.
func DefaultRegistry() *action.Registry {
	r := action.NewRegistry()

	r.Register(&action.Action{
		Name:        ActionSetRepo,
		Description: "Set the GitHub repository to analyze",
		Parameters: schema.Params{
			{Name: "repo_url", Type: schema.String(), Required: true},
		},
		Response: schema.String(),
		Render: func(args map[string]any, st *domain.State) string {
			return "Which GitHub repository should I analyze? (e.g. https://github.com/acme/widget)"
		},
	})

	r.Register(&action.Action{
		Name:        ActionSetDateRange,
		Description: "Set the start date for history analysis",
		Parameters: schema.Params{
			{Name: "start_date", Type: schema.Date(), Required: true},
		},
		Response: schema.Date(),
		Render: func(args map[string]any, st *domain.State) string {
			return fmt.Sprintf("Analyze %s for changes since which date? (YYYY-MM-DD)", st.RepoURL)
		},
	})

	r.Register(&action.Action{
		Name:        ActionSelectTopic,
		Description: "Pick one of the proposed content topics",
		Parameters: schema.Params{
			{Name: "topic_index", Type: schema.Int(), Required: true},
		},
		Response: schema.Int(),
		Render: func(args map[string]any, st *domain.State) string {
			var b strings.Builder
			b.WriteString("I found these topics. Which one should I write about?\n")
			for i, t := range st.Topics {
				fmt.Fprintf(&b, "\n%d. %s: %s (%s %s)", i, t.Title, t.Description, t.SourceType, t.SourceID)
			}
			return b.String()
		},
	})

	r.Register(&action.Action{
		Name:        ActionConfirmContent,
		Description: "Confirm or keep editing the drafted content",
		Response:    schema.Enum(ResponseConfirm, ResponseCancel),
		Options:     []string{ResponseConfirm, ResponseCancel},
		Render: func(args map[string]any, st *domain.State) string {
			rec := st.ContentRecord
			return fmt.Sprintf(
				"# %s\n\n%s\n\n---\n\n%s\n\nReply %s to publish this %s, or %s to keep editing.",
				rec.Title, rec.Summary, rec.Content,
				ResponseConfirm, rec.Type, ResponseCancel,
			)
		},
	})

	return r
}
