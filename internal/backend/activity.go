package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
)

type createCommentRequest struct {
	Content string `json:"content"`
	// Only sent for replies so root comments match the plain {content} body.
	ParentID *int64 `json:"parentId,omitempty"`
}

// ActivityClient covers the event, participation and comment endpoints.
type ActivityClient struct {
	*Client
}

func NewActivityClient(c *Client) *ActivityClient {
	return &ActivityClient{Client: c}
}

func (c *ActivityClient) GetEvent(ctx context.Context, token string, eventID int64) (*domain.Event, error) {
	var event domain.Event
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/api/events/{eventId}",
		path:   fmt.Sprintf("/api/events/%d", eventID),
		token:  token,
	}, &event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *ActivityClient) ListComments(ctx context.Context, token string, eventID int64) ([]domain.RawComment, error) {
	var comments []domain.RawComment
	err := c.do(ctx, request{
		method:     http.MethodGet,
		route:      "/api/events/{eventId}/comments",
		path:       fmt.Sprintf("/api/events/%d/comments", eventID),
		token:      token,
		allowEmpty: true,
	}, &comments)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []domain.RawComment{}
	}
	return comments, nil
}

// CreateComment posts a comment. parentID is nil for a root comment. The
// created comment is returned when the backend echoes it.
func (c *ActivityClient) CreateComment(ctx context.Context, token string, eventID int64, content string, parentID *int64) (*domain.RawComment, error) {
	var created domain.RawComment
	err := c.do(ctx, request{
		method:     http.MethodPost,
		route:      "/api/events/{eventId}/comments",
		path:       fmt.Sprintf("/api/events/%d/comments", eventID),
		token:      token,
		body:       createCommentRequest{Content: content, ParentID: parentID},
		allowEmpty: true,
	}, &created)
	if err != nil {
		return nil, err
	}
	if created.ID == 0 {
		return nil, nil
	}
	return &created, nil
}

func (c *ActivityClient) DeleteComment(ctx context.Context, token string, eventID, commentID int64) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/api/events/{eventId}/comments/{commentId}",
		path:   fmt.Sprintf("/api/events/%d/comments/%d", eventID, commentID),
		token:  token,
	}, nil)
}

func (c *ActivityClient) Join(ctx context.Context, token string, eventID int64) (domain.JoinResult, error) {
	var result domain.JoinResult
	err := c.do(ctx, request{
		method:     http.MethodPost,
		route:      "/api/events/{eventId}/join",
		path:       fmt.Sprintf("/api/events/%d/join", eventID),
		token:      token,
		allowEmpty: true,
	}, &result)
	return result, err
}

func (c *ActivityClient) Leave(ctx context.Context, token string, eventID int64) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/api/events/{eventId}/leave",
		path:   fmt.Sprintf("/api/events/%d/leave", eventID),
		token:  token,
	}, nil)
}

// Ping checks that the backend answers at all. Any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	_ = resp.Body.Close()
	return nil
}
