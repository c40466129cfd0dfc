// Package graph renders the publishing pipeline as a Mermaid flowchart,
// overlaying a session's progress so an operator can see at a glance which
// gates have been passed and where the session currently waits.
package graph

import (
	"fmt"
	"strings"

	"github.com/JonnyTran/heydev/pkg/domain"
)

type stepKind int

const (
	kindStart stepKind = iota
	kindGate
	kindTask
	kindTerminal
)

type step struct {
	id    string
	label string
	kind  stepKind

	// done reports whether the session has passed this step.
	done func(*domain.State) bool
}

// The pipeline is fixed; only the overlay varies per session.
var pipeline = []step{
	{id: "start", label: "start", kind: kindStart,
		done: func(*domain.State) bool { return true }},
	{id: "set_github_repo", label: "set_github_repo", kind: kindGate,
		done: func(s *domain.State) bool { return s.RepoURL != "" }},
	{id: "set_date_range", label: "set_date_range", kind: kindGate,
		done: func(s *domain.State) bool { return s.StartDate != "" }},
	{id: "analyze", label: "analyze repository", kind: kindTask,
		done: func(s *domain.State) bool { return len(s.Topics) > 0 }},
	{id: "select_topic", label: "select_topic", kind: kindGate,
		done: func(s *domain.State) bool { return s.SelectedTopic != nil }},
	{id: "draft", label: "draft content", kind: kindTask,
		done: func(s *domain.State) bool { return s.ContentRecord.Content != "" }},
	{id: "confirm_content", label: "confirm_content", kind: kindGate,
		done: func(s *domain.State) bool { return s.Confirmed }},
	{id: "publish", label: "publish", kind: kindTask,
		done: func(s *domain.State) bool { return s.ContentRecord.ID != 0 }},
	{id: "done", label: "done", kind: kindTerminal,
		done: func(s *domain.State) bool { return s.ContentRecord.ID != 0 }},
}

// GenerateMermaid renders the pipeline as Mermaid flowchart syntax.
// Gates draw as parallelograms (input), collaborator tasks as subroutines.
// With a non-nil state the completed steps are styled visited and the step
// the session is waiting on is styled current (or failed when the session
// halted with an error).
func GenerateMermaid(state *domain.State) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, s := range pipeline {
		opener, closer := "[", "]"
		switch s.kind {
		case kindStart, kindTerminal:
			opener, closer = "((", "))"
		case kindGate:
			opener, closer = "[/", "/]"
		case kindTask:
			opener, closer = "[[", "]]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", s.id, opener, s.label, closer))
	}

	for i := 1; i < len(pipeline); i++ {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", pipeline[i-1].id, pipeline[i].id))
	}
	// CANCEL is the one sanctioned loop: it re-enters the confirm gate.
	sb.WriteString("    confirm_content -. \"CANCEL\" .-> confirm_content\n")

	if state == nil {
		return sb.String()
	}

	sb.WriteString("\n    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

	currentClass := "current"
	if state.Error != "" {
		currentClass = "failed"
	}
	for _, s := range pipeline {
		if s.done(state) {
			sb.WriteString(fmt.Sprintf("    class %s visited;\n", s.id))
			continue
		}
		sb.WriteString(fmt.Sprintf("    class %s %s;\n", s.id, currentClass))
		break
	}

	return sb.String()
}
