package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/schema"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Action{
		Name:        "set_github_repo",
		Description: "Set the GitHub repository to analyze",
		Parameters: schema.Params{
			{Name: "repo_url", Type: schema.String(), Required: true},
		},
		Response: schema.String(),
		Render: func(args map[string]any, st *domain.State) string {
			return "Which GitHub repository should I analyze?"
		},
	})
	return r
}

func TestRegistry_Invoke(t *testing.T) {
	r := newTestRegistry()

	inv, err := r.Invoke("set_github_repo", map[string]any{"repo_url": "https://github.com/acme/widget"}, domain.NewState())
	require.NoError(t, err)
	assert.Equal(t, "set_github_repo", inv.Action.Name)
	assert.Equal(t, "Which GitHub repository should I analyze?", inv.Prompt)
}

func TestRegistry_UnknownAction(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Invoke("publish_everything", nil, domain.NewState())
	assert.ErrorIs(t, err, domain.ErrUnknownAction)
}

func TestRegistry_MissingParameter(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Invoke("set_github_repo", map[string]any{}, domain.NewState())

	var missing *domain.MissingParameterError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "set_github_repo", missing.Action)
	assert.Equal(t, "repo_url", missing.Parameter)
}

func TestRegistry_ListPreservesOrder(t *testing.T) {
	r := newTestRegistry()
	r.Register(&Action{Name: "set_date_range"})
	r.Register(&Action{Name: "select_topic"})

	var names []string
	for _, a := range r.List() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"set_github_repo", "set_date_range", "select_topic"}, names)
}

func TestDecodeArgs(t *testing.T) {
	var got struct {
		RepoURL   string `mapstructure:"repo_url"`
		StartDate string `mapstructure:"start_date"`
	}
	err := DecodeArgs(map[string]any{
		"repo_url":   "https://github.com/acme/widget",
		"start_date": "2025-05-10",
	}, &got)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/widget", got.RepoURL)
	assert.Equal(t, "2025-05-10", got.StartDate)
}
