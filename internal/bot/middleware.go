package bot

import (
	"context"
	"sync"

	"github.com/m3rciful/notebot/core/dispatch"
)

type newUserKey struct{}

// IsNewUser reports whether EnsureUser registered the user for this event.
func IsNewUser(ctx context.Context) bool {
	v, _ := ctx.Value(newUserKey{}).(bool)
	return v
}

// EnsureUser registers the sender before any handler runs so that links
// and rubrics always have an owner row.
func (b *Bot) EnsureUser(next dispatch.Handler) dispatch.Handler {
	return func(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
		if ev.UserID == 0 || b.users.known(ev.UserID) {
			return next(ctx, ev, r)
		}
		created, err := b.store.EnsureUser(ctx, ev.UserID)
		if err != nil {
			return err
		}
		b.users.add(ev.UserID)
		if created {
			ctx = context.WithValue(ctx, newUserKey{}, true)
		}
		return next(ctx, ev, r)
	}
}

// knownUsersLimit bounds the registered-user cache; the oldest ids are
// evicted first and simply registered again on their next update.
const knownUsersLimit = 4096

type knownUsers struct {
	mu   sync.Mutex
	ids  []int64
	next int
	set  map[int64]struct{}
}

func newKnownUsers(limit int) *knownUsers {
	return &knownUsers{ids: make([]int64, 0, limit), set: make(map[int64]struct{}, limit)}
}

func (k *knownUsers) known(id int64) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.set[id]
	return ok
}

func (k *knownUsers) add(id int64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.set[id]; ok {
		return
	}
	if len(k.ids) < cap(k.ids) {
		k.ids = append(k.ids, id)
	} else {
		delete(k.set, k.ids[k.next])
		k.ids[k.next] = id
		k.next = (k.next + 1) % len(k.ids)
	}
	k.set[id] = struct{}{}
}

func (k *knownUsers) forget(id int64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.set, id)
}

// DeleteUser removes the user with everything they own and ends their flow.
// The next update from the user registers them again.
func (b *Bot) DeleteUser(ctx context.Context, id int64) error {
	if err := b.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	b.users.forget(id)
	return b.flows.Reset(ctx, id)
}
