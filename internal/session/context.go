package session

import "context"

type contextKey struct{}

// Info is what the HTTP layer knows about the caller of a request.
type Info struct {
	ID          string
	Subject     string
	AccessToken string
}

func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, contextKey{}, info)
}

func FromContext(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(contextKey{}).(Info)
	return info, ok
}

// AccessToken returns the bearer token of the current session, or "".
func AccessToken(ctx context.Context) string {
	info, _ := FromContext(ctx)
	return info.AccessToken
}
