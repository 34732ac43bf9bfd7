package display

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
)

var (
	now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	sv  = NewLocalizer(language.Swedish, time.UTC)
	en  = NewLocalizer(language.English, time.UTC)
)

func TestRelativeTime_Swedish(t *testing.T) {
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{ago: 0, want: "just nu"},
		{ago: 59 * time.Second, want: "just nu"},
		{ago: 90 * time.Second, want: "1 min sedan"},
		{ago: 59 * time.Minute, want: "59 min sedan"},
		{ago: 2 * time.Hour, want: "2 h sedan"},
		{ago: 25 * time.Hour, want: "1 dag sedan"},
		{ago: 3 * 24 * time.Hour, want: "3 dagar sedan"},
		{ago: -5 * time.Minute, want: "just nu"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RelativeTime(sv, now.Add(-tc.ago), now), tc.ago.String())
	}
}

func TestRelativeTime_English(t *testing.T) {
	assert.Equal(t, "just now", RelativeTime(en, now, now))
	assert.Equal(t, "5 min ago", RelativeTime(en, now.Add(-5*time.Minute), now))
	assert.Equal(t, "1 day ago", RelativeTime(en, now.Add(-30*time.Hour), now))
	assert.Equal(t, "2 days ago", RelativeTime(en, now.Add(-50*time.Hour), now))
}

func TestRelativeTime_Absolute(t *testing.T) {
	old := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "5 mar kl. 14:30", RelativeTime(sv, old, now))
	assert.Equal(t, "5 Mar at 14:30", RelativeTime(en, old, now))

	stockholm, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)
	local := NewLocalizer(language.Swedish, stockholm)
	assert.Equal(t, "5 mar kl. 15:30", RelativeTime(local, old, now))

	may := time.Date(2024, 5, 1, 8, 5, 0, 0, time.UTC)
	assert.Equal(t, "1 maj kl. 08:05", RelativeTime(sv, may, now.AddDate(0, 0, 30)))
}

func TestTruncate(t *testing.T) {
	short := strings.Repeat("a", TruncateLimit)
	got, cut := Truncate(short)
	assert.False(t, cut)
	assert.Equal(t, short, got)

	long := strings.Repeat("å", TruncateLimit+1)
	got, cut = Truncate(long)
	assert.True(t, cut)
	assert.Equal(t, strings.Repeat("å", TruncateLimit)+"…", got)
}

func TestExpansion_ToggleRoundTrip(t *testing.T) {
	body := strings.Repeat("word ", 40)
	roots := []domain.Root{{CommentFields: domain.CommentFields{ID: 1, Content: body, CreatedAt: now}}}
	exp := NewExpansion()
	opts := ThreadOptions{Now: now, Expansion: exp}

	collapsed := RenderThread(sv, roots, opts)[0]
	assert.True(t, collapsed.Truncated)
	assert.True(t, collapsed.Expandable)
	assert.NotEqual(t, body, collapsed.Text)

	assert.True(t, exp.Toggle(1))
	expanded := RenderThread(sv, roots, opts)[0]
	assert.Equal(t, body, expanded.Text)
	assert.True(t, expanded.Expanded)
	assert.False(t, expanded.Truncated)

	assert.False(t, exp.Toggle(1))
	assert.Equal(t, collapsed.Text, RenderThread(sv, roots, opts)[0].Text)
	assert.Equal(t, body, roots[0].Content)

	exp.Toggle(1)
	exp.Forget(1)
	assert.False(t, exp.Expanded(1))
}

func TestRenderThread_Controls(t *testing.T) {
	roots := []domain.Root{
		{
			CommentFields: domain.CommentFields{ID: 1, AuthorID: 7, Content: "root", CreatedAt: now.Add(-90 * time.Second)},
			Replies: []domain.Reply{
				{CommentFields: domain.CommentFields{ID: 2, AuthorID: 8, Content: "reply", CreatedAt: now}, RootID: 1},
			},
		},
		{CommentFields: domain.CommentFields{ID: 3, AuthorID: 8, Content: "other", CreatedAt: now}},
	}

	views := RenderThread(sv, roots, ThreadOptions{
		ViewerID:      7,
		Authenticated: true,
		Now:           now,
		ReplyTarget:   1,
		Replying:      true,
		Errors:        map[int64]string{3: "nope"},
	})

	require.Len(t, views, 2)
	root := views[0]
	assert.Equal(t, "1 min sedan", root.TimeLabel)
	assert.True(t, root.CanReply)
	assert.True(t, root.CanDelete)
	assert.True(t, root.IsReplying)

	require.Len(t, root.Replies, 1)
	reply := root.Replies[0]
	assert.True(t, reply.IsReply)
	assert.Equal(t, int64(1), reply.RootID)
	assert.False(t, reply.CanReply)
	assert.False(t, reply.CanDelete)

	assert.False(t, views[1].CanDelete)
	assert.False(t, views[1].IsReplying)
	assert.Equal(t, "nope", views[1].Error)
}

func TestRenderThread_Anonymous(t *testing.T) {
	roots := []domain.Root{{CommentFields: domain.CommentFields{ID: 1, AuthorID: 0, Content: "x", CreatedAt: now}}}
	v := RenderThread(sv, roots, ThreadOptions{Now: now})[0]
	assert.False(t, v.CanReply)
	assert.False(t, v.CanDelete)
}

func TestErrorText(t *testing.T) {
	assert.Empty(t, ErrorText(sv, nil))
	assert.Equal(t, "event is full", ErrorText(sv, &domain.ActionError{Kind: domain.KindRejected, Message: "event is full"}))
	assert.Equal(t, "comment not found", ErrorText(en, &domain.ActionError{Kind: domain.KindNotFound, Message: "comment not found"}))
	assert.Equal(t, "Not found.", ErrorText(en, &domain.ActionError{Kind: domain.KindNotFound}))
	assert.Equal(t, "You need to sign in again.", ErrorText(en, &domain.ActionError{Kind: domain.KindUnauthorized, Message: "Unauthorized"}))
	assert.Equal(t, "Could not complete the action. Please try again.", ErrorText(en, &domain.ActionError{Kind: domain.KindTransport, Message: "Bad Gateway"}))
	assert.Equal(t, "Det gick inte att slutföra åtgärden. Försök igen.", ErrorText(sv, errors.New("boom")))
	assert.Equal(t, "Only top-level comments can be replied to.", ErrorText(en, domain.ErrNotReplyable))
	assert.Equal(t, "Kommentaren finns inte längre.", ErrorText(sv, domain.ErrCommentNotFound))
}

func TestResolveTag(t *testing.T) {
	req := httptest.NewRequest("GET", "/?lang=en", nil)
	assert.Equal(t, language.English, ResolveTag(req, language.Swedish))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	assert.Equal(t, language.English, ResolveTag(req, language.Swedish))

	req.Header.Set("Accept-Language", "de-DE")
	assert.Equal(t, language.Swedish, ResolveTag(req, language.Swedish))

	req = httptest.NewRequest("GET", "/?lang=klingon", nil)
	assert.Equal(t, language.English, ResolveTag(req, language.English))

	assert.Equal(t, language.Swedish, ResolveTag(nil, language.Swedish))
}

func TestMatchTag(t *testing.T) {
	assert.Equal(t, language.Swedish, MatchTag(language.MustParse("sv-SE")))
	assert.Equal(t, language.English, MatchTag(language.AmericanEnglish))
	assert.Equal(t, language.Swedish, MatchTag(language.German))
	assert.Equal(t, language.Swedish, MatchTag())
}
