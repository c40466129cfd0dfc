// Package draft produces first-cut content drafts for a selected topic.
// Drafts are deliberately templated starting points; the human refines the
// working record before confirming publication.
package draft

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/ports"
)

// channelFor maps a content kind to its default publication channel.
var channelFor = map[domain.ContentKind]domain.Channel{
	domain.KindBlogPost:    domain.ChannelBlog,
	domain.KindCodeExample: domain.ChannelGitHub,
	domain.KindSocialMedia: domain.ChannelTwitter,
}

type Drafter struct{}

func New() *Drafter {
	return &Drafter{}
}

// Draft renders one draft per content kind the topic supports and seeds the
// working record from the leading kind.
func (d *Drafter) Draft(ctx context.Context, topic domain.Topic, progress ports.ProgressFunc) (*ports.DraftSet, error) {
	kinds := topic.ContentTypes
	if len(kinds) == 0 {
		kinds = []domain.ContentKind{domain.KindBlogPost}
	}

	if progress != nil {
		progress(ctx, fmt.Sprintf("Drafting content for: %s", topic.Title))
	}

	drafts := make(map[domain.ContentKind]string, len(kinds))
	for _, kind := range kinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown content kind %q", kind)
		}
		drafts[kind] = render(kind, topic)
	}

	lead := kinds[0]
	return &ports.DraftSet{
		Drafts: drafts,
		Record: domain.ContentRecord{
			Channel: channelFor[lead],
			Title:   topic.Title,
			Summary: topic.Description,
			Content: drafts[lead],
			Type:    lead,
		},
	}, nil
}

func render(kind domain.ContentKind, topic domain.Topic) string {
	var b strings.Builder
	switch kind {
	case domain.KindBlogPost:
		fmt.Fprintf(&b, "# %s\n\n", topic.Title)
		fmt.Fprintf(&b, "%s\n\n", topic.Description)
		fmt.Fprintf(&b, "## What changed\n\nDrawn from %s %s.\n\n", topic.SourceType, topic.SourceID)
		b.WriteString("## Why it matters\n\nTODO: expand before publishing.\n")
	case domain.KindCodeExample:
		fmt.Fprintf(&b, "// %s\n", topic.Title)
		fmt.Fprintf(&b, "// %s\n", topic.Description)
		fmt.Fprintf(&b, "// Source: %s %s\n\n", topic.SourceType, topic.SourceID)
		b.WriteString("package main\n\nfunc main() {\n\t// demonstrate the change here\n}\n")
	case domain.KindSocialMedia:
		fmt.Fprintf(&b, "%s\n\n%s\n\n#opensource #devrel", topic.Title, topic.Description)
	}
	return b.String()
}
