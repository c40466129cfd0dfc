package domain

import "time"

// ContentKind is the closed set of content formats the agent can draft.
type ContentKind string

const (
	KindBlogPost    ContentKind = "blog_post"
	KindCodeExample ContentKind = "code_example"
	KindSocialMedia ContentKind = "social_media"
)

// ContentKinds lists all valid kinds in presentation order.
var ContentKinds = []ContentKind{KindBlogPost, KindCodeExample, KindSocialMedia}

// Valid reports whether k is one of the known content kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case KindBlogPost, KindCodeExample, KindSocialMedia:
		return true
	}
	return false
}

// Channel identifies where a finalized piece of content is published.
type Channel string

const (
	ChannelBlog     Channel = "blog"
	ChannelTwitter  Channel = "twitter"
	ChannelLinkedIn Channel = "linkedin"
	ChannelGitHub   Channel = "github"
)

// SourceType identifies the repository event a topic was derived from.
type SourceType string

const (
	SourceCommit SourceType = "commit"
	SourceIssue  SourceType = "issue"
	SourcePR     SourceType = "pr"
	SourceDoc    SourceType = "doc"
)

// Topic is a proposed content idea derived from a repository source event.
// Topics are immutable once generated within a session; identity is the
// positional index in State.Topics or the stable SourceID.
type Topic struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	SourceType   SourceType    `json:"source_type"`
	SourceID     string        `json:"source_id"`
	ContentTypes []ContentKind `json:"content_types"`
}

// ContentRecord is the finalized, channel-tagged piece of content eligible
// for persistence. It is created empty, populated incrementally by human
// edits, and becomes immutable once published.
type ContentRecord struct {
	Channel Channel     `json:"channel"`
	Title   string      `json:"title"`
	Summary string      `json:"summary"`
	Content string      `json:"content"`
	Type    ContentKind `json:"type"`

	// ID is assigned by the persistence collaborator after publication.
	ID int64 `json:"id,omitempty"`
}

// Commit is a repository commit observed during analysis.
type Commit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}

// Issue is a repository issue observed during analysis.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// PullRequest is a repository pull request observed during analysis.
type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// DocChange records a commit that touched documentation files.
type DocChange struct {
	CommitSHA string   `json:"commit_sha"`
	Message   string   `json:"message"`
	Files     []string `json:"files"`
}
