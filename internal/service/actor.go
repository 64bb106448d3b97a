package service

import "context"

type actorKey struct{}

// Actor identifies who triggered an operation, for audit records.
type Actor struct {
	UserID    string
	IPAddress string
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	return a
}
