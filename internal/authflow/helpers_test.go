package authflow

import (
	"context"
	"errors"
	"sync"
)

type call struct {
	operation string
	params    map[string]string
}

// fakeTransport returns a canned result. When gate is non-nil each call
// signals started and then waits for gate before returning.
type fakeTransport struct {
	payload *Payload
	err     error

	started chan struct{}
	gate    chan struct{}

	mu    sync.Mutex
	calls []call
}

func (f *fakeTransport) Execute(ctx context.Context, operation string, params map[string]string) (*Payload, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{operation: operation, params: params})
	f.mu.Unlock()

	if f.gate != nil {
		f.started <- struct{}{}
		<-f.gate
	}
	return f.payload, f.err
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTransport) lastCall() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func succeeding(msg string) *fakeTransport {
	return &fakeTransport{payload: &Payload{Message: msg}}
}

func failing(msg string) *fakeTransport {
	return &fakeTransport{err: errors.New(msg)}
}

func gated(t *fakeTransport) *fakeTransport {
	t.started = make(chan struct{}, 1)
	t.gate = make(chan struct{})
	return t
}
