package dispatch

import "context"

type invocationIDKey struct{}

// WithInvocationID returns a context carrying id, used as the invocation id
// of requests that do not set one.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationIDKey{}, id)
}

// InvocationID returns the id stored by WithInvocationID, if any.
func InvocationID(ctx context.Context) string {
	id, _ := ctx.Value(invocationIDKey{}).(string)
	return id
}
