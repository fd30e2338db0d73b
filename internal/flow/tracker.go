package flow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/notebot/core/logger"
	"github.com/m3rciful/notebot/core/state"
)

// Namespace is the core/state namespace holding conversation flows.
const Namespace = "conversation"

// Tracker persists the current flow state of each user.
type Tracker struct {
	store state.Store
}

// NewTracker wraps a state store.
func NewTracker(store state.Store) *Tracker {
	return &Tracker{store: store}
}

// Current returns the user's flow state, nil when no flow is active. A
// record that no longer decodes is dropped and treated as idle.
func (t *Tracker) Current(ctx context.Context, userID int64) (State, error) {
	rec, ok, err := t.store.Get(ctx, userID, Namespace)
	if errors.Is(err, state.ErrCorrupt) {
		return nil, t.discard(ctx, userID, rec.State, err)
	}
	if err != nil || !ok {
		return nil, err
	}
	s, err := Decode(rec.State, rec.Data)
	if err != nil {
		return nil, t.discard(ctx, userID, rec.State, err)
	}
	return s, nil
}

func (t *Tracker) discard(ctx context.Context, userID int64, name string, cause error) error {
	logger.Warn(ctx, "flow", "flow.discard",
		slog.Int64("user_id", userID),
		slog.String("state", name),
		slog.String("err", cause.Error()),
	)
	return t.store.Clear(ctx, userID, Namespace)
}

// StateName returns the routing name of the user's state.
func (t *Tracker) StateName(ctx context.Context, userID int64) (string, error) {
	s, err := t.Current(ctx, userID)
	if err != nil {
		return "", err
	}
	return Name(s), nil
}

// Save moves the user to s.
func (t *Tracker) Save(ctx context.Context, userID int64, s State) error {
	name, data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := t.store.Set(ctx, userID, Namespace, state.Record{State: name, Data: data}); err != nil {
		return err
	}
	logger.Debug(ctx, "flow", "flow.transition",
		slog.Int64("user_id", userID),
		slog.String("from", logger.StateFrom(ctx)),
		slog.String("to", name),
	)
	return nil
}

// Reset ends any active flow.
func (t *Tracker) Reset(ctx context.Context, userID int64) error {
	if err := t.store.Clear(ctx, userID, Namespace); err != nil {
		return err
	}
	logger.Debug(ctx, "flow", "flow.transition",
		slog.Int64("user_id", userID),
		slog.String("from", logger.StateFrom(ctx)),
		slog.String("to", ""),
	)
	return nil
}
