// Package requestctx carries per-request identity and gating facts
// through context, so feature handlers never recompute guard decisions.
package requestctx

import "context"

// userIDContextKey is the context key for authenticated user identity.
type userIDContextKey struct{}

// gatesContextKey is the context key for feature gate facts.
type gatesContextKey struct{}

// Gates holds the feature-level capabilities resolved for a request.
type Gates struct {
	CanInvest    bool
	CanSubscribe bool
}

// WithUserID stores a user identifier in context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// UserIDFromContext returns the user identifier stored in context.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(userIDContextKey{}).(string)
	return value
}

// WithGates stores resolved feature gates in context.
func WithGates(ctx context.Context, gates Gates) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, gatesContextKey{}, gates)
}

// GatesFromContext returns the feature gates stored in context.
func GatesFromContext(ctx context.Context) Gates {
	if ctx == nil {
		return Gates{}
	}
	value, _ := ctx.Value(gatesContextKey{}).(Gates)
	return value
}
