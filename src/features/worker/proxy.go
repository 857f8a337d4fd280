package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Proxy is the worker-side end of the request/response channel pair. Every
// host capability call is a correlated async message: the proxy assigns a
// monotonically increasing id, parks a future in the pending table and
// resolves it when the matching fs_response arrives. One abstraction serves
// every operation kind instead of per-call-site bookkeeping.
type Proxy struct {
	nextID  atomic.Uint64
	mu      sync.Mutex
	pending map[uint64]chan Message
	out     chan<- Message
}

// NewProxy creates a proxy writing requests and notifications to out.
func NewProxy(out chan<- Message) *Proxy {
	return &Proxy{
		pending: make(map[uint64]chan Message),
		out:     out,
	}
}

// Call issues one proxied operation and waits for its reply. Exactly one
// reply per request is expected; a cancelled context abandons the wait and
// drops the pending entry so a late reply is discarded instead of leaking.
func (p *Proxy) Call(ctx context.Context, op Operation, args []string, data []byte) (any, error) {
	id := p.nextID.Add(1)
	reply := make(chan Message, 1)

	p.mu.Lock()
	p.pending[id] = reply
	p.mu.Unlock()

	select {
	case p.out <- Message{Kind: KindFSRequest, RequestID: id, Op: op, Args: args, Data: data}:
	case <-ctx.Done():
		p.drop(id)
		return nil, ctx.Err()
	}

	select {
	case m := <-reply:
		if m.Err != "" {
			return nil, &ProxyError{Op: op, Message: m.Err}
		}
		return m.Result, nil
	case <-ctx.Done():
		p.drop(id)
		return nil, ctx.Err()
	}
}

// Dispatch resolves the pending future matching an fs_response. Responses
// for abandoned requests are dropped.
func (p *Proxy) Dispatch(m Message) {
	p.mu.Lock()
	reply, ok := p.pending[m.RequestID]
	if ok {
		delete(p.pending, m.RequestID)
	}
	p.mu.Unlock()
	if ok {
		reply <- m
	}
}

// Notify sends an asynchronous notification (progress, terminal states)
// without correlation.
func (p *Proxy) Notify(m Message) {
	p.out <- m
}

func (p *Proxy) drop(id uint64) {
	p.mu.Lock()
	delete(p.pending, id)
	p.mu.Unlock()
}

// The typed wrappers below give the extractor a plain filesystem surface
// while routing every effect through the message channel.

// Mkdir creates a directory on the host.
func (p *Proxy) Mkdir(ctx context.Context, dir string) error {
	_, err := p.Call(ctx, OpMkdir, []string{dir}, nil)
	return err
}

// Exists reports whether a path exists on the host.
func (p *Proxy) Exists(ctx context.Context, path string) (bool, error) {
	result, err := p.Call(ctx, OpExists, []string{path}, nil)
	if err != nil {
		return false, err
	}
	exists, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected exists result %T", result)
	}
	return exists, nil
}

// WriteFile writes data to a host path.
func (p *Proxy) WriteFile(ctx context.Context, path string, data []byte) error {
	_, err := p.Call(ctx, OpWriteFile, []string{path}, data)
	return err
}

// ReadFile reads a host file's bytes.
func (p *Proxy) ReadFile(ctx context.Context, path string) ([]byte, error) {
	result, err := p.Call(ctx, OpReadFile, []string{path}, nil)
	if err != nil {
		return nil, err
	}
	data, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected readFile result %T", result)
	}
	return data, nil
}

// ReadTextFile reads a host file as text.
func (p *Proxy) ReadTextFile(ctx context.Context, path string) (string, error) {
	result, err := p.Call(ctx, OpReadTextFile, []string{path}, nil)
	if err != nil {
		return "", err
	}
	text, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected readTextFile result %T", result)
	}
	return text, nil
}

// Remove deletes a host path recursively.
func (p *Proxy) Remove(ctx context.Context, path string) error {
	_, err := p.Call(ctx, OpRemove, []string{path}, nil)
	return err
}

// Transcode runs the host-owned encoder.
func (p *Proxy) Transcode(ctx context.Context, src, dst string) error {
	_, err := p.Call(ctx, OpTranscode, []string{src, dst}, nil)
	return err
}
