package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

type writeReq struct {
	line []byte
	ack  chan error // set for flush requests
}

// asyncWriter moves sink I/O off the logging goroutine. Lines are written
// in arrival order; the buffer is flushed whenever the queue runs dry.
type asyncWriter struct {
	mu     sync.RWMutex
	closed bool
	queue  chan writeReq
	done   chan struct{}
	out    *bufio.Writer
	err    error // first sink error, owned by run
}

func newAsyncWriter(sinks []io.Writer, bufSize int) *asyncWriter {
	w := &asyncWriter{
		queue: make(chan writeReq, 256),
		done:  make(chan struct{}),
		out:   bufio.NewWriterSize(io.MultiWriter(sinks...), bufSize),
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for req := range w.queue {
		if req.ack != nil {
			req.ack <- w.flush()
			continue
		}
		if w.err == nil {
			_, w.err = w.out.Write(req.line)
		}
		if len(w.queue) == 0 {
			_ = w.flush()
		}
	}
	_ = w.flush()
}

func (w *asyncWriter) flush() error {
	if w.err == nil {
		w.err = w.out.Flush()
	}
	return w.err
}

// Write queues a copy of line. It blocks only while the queue is full.
func (w *asyncWriter) Write(line []byte) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.queue <- writeReq{line: append([]byte(nil), line...)}
	return nil
}

// Flush waits until every queued line reached the sinks.
func (w *asyncWriter) Flush() error {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return nil
	}
	ack := make(chan error, 1)
	w.queue <- writeReq{ack: ack}
	w.mu.RUnlock()
	return <-ack
}

// Close drains the queue and reports the first sink error.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
	return w.err
}
