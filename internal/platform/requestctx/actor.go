// Package requestctx carries request-scoped identity through context.
package requestctx

import (
	"context"
	"strings"
)

// ActorMetadataKey is the gRPC metadata key naming who issued a request.
const ActorMetadataKey = "x-initiative-actor"

// actorIDContextKey is the context key for the acting game master or tool.
type actorIDContextKey struct{}

// WithActorID stores an actor identifier in context. Blank values are ignored.
func WithActorID(ctx context.Context, actorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorIDContextKey{}, actorID)
}

// ActorIDFromContext returns the actor identifier stored in context.
func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(actorIDContextKey{}).(string)
	return value
}
