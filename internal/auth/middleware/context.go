package auth

import "context"

type ctxKey string

const (
	ctxKeySub    ctxKey = "sub"
	ctxKeyClient ctxKey = "client"
)

// WithSubject attaches the opaque user id of the caller.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

// SubjectFromContext returns the user id, or "" for anonymous callers.
func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, ctxKeyClient, client)
}

func ClientFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeyClient); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SessionKey identifies the caller's quiz session: the user id when signed
// in, otherwise the guest client id. Empty means neither was supplied.
func SessionKey(ctx context.Context) string {
	if sub := SubjectFromContext(ctx); sub != "" {
		return "user:" + sub
	}
	if c := ClientFromContext(ctx); c != "" {
		return "guest:" + c
	}
	return ""
}
