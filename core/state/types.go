package state

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrCorrupt reports a stored record that cannot be decoded.
var ErrCorrupt = errors.New("state: corrupt record")

// Record is the persisted state of one user in one namespace.
type Record struct {
	State string          `json:"state"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Store reads and writes state records. Get reports ok=false when the user
// has no record in the namespace.
type Store interface {
	Get(ctx context.Context, userID int64, namespace string) (Record, bool, error)
	Set(ctx context.Context, userID int64, namespace string, rec Record) error
	Clear(ctx context.Context, userID int64, namespace string) error
}
