package middleware

import (
	"context"
	"sync"
)

// requestInfo collects fields set by inner middleware for the access log.
type requestInfo struct {
	mu      sync.Mutex
	userID  string
	country string
}

type requestInfoKey struct{}

func withRequestInfo(ctx context.Context, info *requestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func noteUser(ctx context.Context, userID string) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.mu.Lock()
		info.userID = userID
		info.mu.Unlock()
	}
}

func noteCountry(ctx context.Context, country string) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.mu.Lock()
		info.country = country
		info.mu.Unlock()
	}
}
