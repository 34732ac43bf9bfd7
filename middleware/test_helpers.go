package middleware

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/session"
)

// SetRequestIDForTest injects a request id without going through RequestID.
func SetRequestIDForTest(ctx context.Context, id string) context.Context {
	return WithRequestID(ctx, id)
}

// SetSessionForTest injects a signed-in session without a JWT.
func SetSessionForTest(ctx context.Context, userID int64, token string) context.Context {
	return session.WithSession(ctx, session.New(userID, token))
}
