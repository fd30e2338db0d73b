package dispatch

import (
	"context"
	"sync"
)

// Sent is one reply captured by Recorder.
type Sent struct {
	Text     string
	Keyboard *Keyboard
	Sticker  string
}

// Recorder is an in-memory Responder for tests.
type Recorder struct {
	mu             sync.Mutex
	Sent           []Sent
	InlineRemovals int
	Err            error
}

// Send records a text reply.
func (r *Recorder) Send(_ context.Context, text string, kb *Keyboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, Sent{Text: text, Keyboard: kb})
	return nil
}

// SendSticker records a sticker reply.
func (r *Recorder) SendSticker(_ context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, Sent{Sticker: fileID})
	return nil
}

// RemoveInlineKeyboard counts removals.
func (r *Recorder) RemoveInlineKeyboard(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.InlineRemovals++
	return nil
}

// Last returns the most recent reply.
func (r *Recorder) Last() Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Sent) == 0 {
		return Sent{}
	}
	return r.Sent[len(r.Sent)-1]
}

// Texts returns the text of every reply in order.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Sent))
	for _, s := range r.Sent {
		if s.Sticker == "" {
			out = append(out, s.Text)
		}
	}
	return out
}

// Reset drops recorded replies.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = nil
	r.InlineRemovals = 0
}
