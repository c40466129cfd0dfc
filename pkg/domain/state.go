package domain

// State is the single shared document for one publishing session.
// Both the agent flow and the presentation layer hold a view of it; it is
// the single source of truth read by both sides.
//
// Writes go through pkg/session, which serializes access per session and
// applies snapshots by whole-document replace (last writer wins). The
// document is never merged field by field.
type State struct {
	// Target repository.
	RepoURL   string `json:"repo_url"`
	StartDate string `json:"start_date"` // YYYY-MM-DD lower bound for analysis

	// Analysis data collected by the analyzer collaborator.
	Commits      []Commit      `json:"commits,omitempty"`
	Issues       []Issue       `json:"issues,omitempty"`
	PullRequests []PullRequest `json:"pull_requests,omitempty"`
	DocChanges   []DocChange   `json:"doc_changes,omitempty"`

	// Proposed topics, insertion order is presentation order.
	Topics        []Topic `json:"topics,omitempty"`
	SelectedTopic *Topic  `json:"selected_topic,omitempty"`

	// Drafts keyed by content kind, plus the record being edited.
	ContentDrafts map[ContentKind]string `json:"content_drafts"`
	ContentRecord ContentRecord          `json:"content_record"`

	// Side-band progress and failure reporting. Single-slot, overwritten on
	// every update; Error suppresses Status at render time.
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`

	// Confirmed is set true only when the human explicitly confirms
	// publication. Irreversible within the session.
	Confirmed bool `json:"confirmed,omitempty"`

	// Sealed carries the encrypted session document when store encryption
	// is enabled. A sealed state has every field except Status empty.
	Sealed string `json:"sealed,omitempty"`
}

// NewState creates an empty session document with initialized draft slots.
func NewState() *State {
	drafts := make(map[ContentKind]string, len(ContentKinds))
	for _, k := range ContentKinds {
		drafts[k] = ""
	}
	return &State{
		ContentDrafts: drafts,
	}
}

// Clone returns a deep copy of the state. Stores and the session manager
// hand out clones so no caller can mutate the canonical document by pointer.
func (s *State) Clone() *State {
	c := *s

	if s.Commits != nil {
		c.Commits = append([]Commit(nil), s.Commits...)
	}
	if s.Issues != nil {
		c.Issues = append([]Issue(nil), s.Issues...)
	}
	if s.PullRequests != nil {
		c.PullRequests = append([]PullRequest(nil), s.PullRequests...)
	}
	if s.DocChanges != nil {
		c.DocChanges = make([]DocChange, len(s.DocChanges))
		for i, d := range s.DocChanges {
			d.Files = append([]string(nil), d.Files...)
			c.DocChanges[i] = d
		}
	}
	if s.Topics != nil {
		c.Topics = make([]Topic, len(s.Topics))
		for i, t := range s.Topics {
			t.ContentTypes = append([]ContentKind(nil), t.ContentTypes...)
			c.Topics[i] = t
		}
	}
	if s.SelectedTopic != nil {
		t := *s.SelectedTopic
		t.ContentTypes = append([]ContentKind(nil), s.SelectedTopic.ContentTypes...)
		c.SelectedTopic = &t
	}
	if s.ContentDrafts != nil {
		c.ContentDrafts = make(map[ContentKind]string, len(s.ContentDrafts))
		for k, v := range s.ContentDrafts {
			c.ContentDrafts[k] = v
		}
	}

	return &c
}

// SetStatus records a progress message and clears any previous error.
// Callers must not leave both slots set; the pair would render ambiguously.
func (s *State) SetStatus(msg string) {
	s.Status = msg
	s.Error = ""
}

// SetError records a stop condition and clears any previous status.
func (s *State) SetError(msg string) {
	s.Error = msg
	s.Status = ""
}

// Display returns the message the presentation layer should show.
// Error takes precedence over Status.
func (s *State) Display() string {
	if s.Error != "" {
		return s.Error
	}
	return s.Status
}
