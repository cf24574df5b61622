// Package ctxkeys holds the typed context keys shared by the API middleware
// and handlers. It is a leaf package so both can import it.
package ctxkeys

import "context"

// Key is the named type for all API context keys, so they never collide
// with plain string keys from other packages.
type Key string

const (
	// Subject is the authenticated caller, taken from the JWT "sub" claim.
	Subject Key = "subject"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// String returns the value stored under key, or "" when absent.
func String(ctx context.Context, key Key) string {
	v, _ := ctx.Value(key).(string)
	return v
}
