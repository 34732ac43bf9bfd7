package display

import (
	"time"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
)

type CommentView struct {
	ID             int64         `json:"id"`
	AuthorID       int64         `json:"authorId"`
	AuthorName     string        `json:"authorName"`
	AuthorImageURL string        `json:"authorImageUrl,omitempty"`
	Content        string        `json:"content"`
	Text           string        `json:"text"`
	Truncated      bool          `json:"truncated"`
	Expandable     bool          `json:"expandable"`
	Expanded       bool          `json:"expanded"`
	TimeLabel      string        `json:"timeLabel"`
	CreatedAt      time.Time     `json:"createdAt"`
	IsReply        bool          `json:"isReply"`
	RootID         int64         `json:"rootId,omitempty"`
	CanReply       bool          `json:"canReply"`
	CanDelete      bool          `json:"canDelete"`
	IsReplying     bool          `json:"isReplying"`
	Error          string        `json:"error,omitempty"`
	Replies        []CommentView `json:"replies,omitempty"`
}

// ThreadOptions carries the per-view state the renderer reads.
type ThreadOptions struct {
	ViewerID      int64
	Authenticated bool
	Now           time.Time
	Expansion     *Expansion
	ReplyTarget   int64
	Replying      bool
	// Errors holds inline error text keyed by comment id.
	Errors map[int64]string
}

// RenderThread renders roots in order, each followed by its replies. Only
// roots offer a reply control and only the author may delete.
func RenderThread(l Localizer, roots []domain.Root, opts ThreadOptions) []CommentView {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	out := make([]CommentView, 0, len(roots))
	for _, r := range roots {
		v := renderComment(l, r.CommentFields, opts)
		v.CanReply = opts.Authenticated
		v.IsReplying = opts.Replying && opts.ReplyTarget == r.ID
		for _, reply := range r.Replies {
			rv := renderComment(l, reply.CommentFields, opts)
			rv.IsReply = true
			rv.RootID = reply.RootID
			v.Replies = append(v.Replies, rv)
		}
		out = append(out, v)
	}
	return out
}

func renderComment(l Localizer, f domain.CommentFields, opts ThreadOptions) CommentView {
	short, truncated := Truncate(f.Content)
	expanded := truncated && opts.Expansion.Expanded(f.ID)

	text := short
	if expanded {
		text = f.Content
	}

	return CommentView{
		ID:             f.ID,
		AuthorID:       f.AuthorID,
		AuthorName:     f.AuthorName,
		AuthorImageURL: f.AuthorImageURL,
		Content:        f.Content,
		Text:           text,
		Truncated:      truncated && !expanded,
		Expandable:     truncated,
		Expanded:       expanded,
		TimeLabel:      RelativeTime(l, f.CreatedAt, opts.Now),
		CreatedAt:      f.CreatedAt,
		CanDelete:      opts.Authenticated && f.AuthorID == opts.ViewerID,
		Error:          opts.Errors[f.ID],
	}
}
