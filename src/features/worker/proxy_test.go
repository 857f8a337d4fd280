package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestProxyCorrelatesRepliesByID(t *testing.T) {
	out := make(chan Message, 4)
	proxy := NewProxy(out)

	// Host loop answering exists with alternating results keyed off the
	// request path.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2; i++ {
			req := <-out
			proxy.Dispatch(Message{
				Kind:      KindFSResponse,
				RequestID: req.RequestID,
				Result:    req.Args[0] == "/present",
			})
		}
	}()

	var wg sync.WaitGroup
	results := make([]bool, 2)
	paths := []string{"/present", "/absent"}
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := proxy.Exists(context.Background(), paths[i])
			if err != nil {
				t.Errorf("exists failed: %v", err)
				return
			}
			results[i] = ok
		}(i)
	}
	wg.Wait()
	<-done

	if !results[0] || results[1] {
		t.Errorf("replies routed to wrong callers: %v", results)
	}
}

func TestProxyRelaysWorkerError(t *testing.T) {
	out := make(chan Message, 1)
	proxy := NewProxy(out)

	go func() {
		req := <-out
		proxy.Dispatch(Message{Kind: KindFSResponse, RequestID: req.RequestID, Err: "disk full"})
	}()

	err := proxy.WriteFile(context.Background(), "/x", []byte("data"))
	var proxyErr *ProxyError
	if !errors.As(err, &proxyErr) {
		t.Fatalf("expected ProxyError, got %v", err)
	}
	if proxyErr.Op != OpWriteFile || proxyErr.Message != "disk full" {
		t.Errorf("unexpected error content: %+v", proxyErr)
	}
}

func TestProxyCancelDropsPendingRequest(t *testing.T) {
	out := make(chan Message, 1)
	proxy := NewProxy(out)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := proxy.Call(ctx, OpReadFile, []string{"/never"}, nil)
		errCh <- err
	}()

	req := <-out
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled call never returned")
	}

	// A late reply for the abandoned id must be discarded silently.
	proxy.Dispatch(Message{Kind: KindFSResponse, RequestID: req.RequestID, Result: []byte("late")})
}

func TestProxyAssignsMonotonicIDs(t *testing.T) {
	out := make(chan Message, 3)
	proxy := NewProxy(out)

	go func() {
		for i := 0; i < 3; i++ {
			req := <-out
			proxy.Dispatch(Message{Kind: KindFSResponse, RequestID: req.RequestID})
		}
	}()

	for i := 0; i < 3; i++ {
		if err := proxy.Mkdir(context.Background(), "/d"); err != nil {
			t.Fatalf("mkdir failed: %v", err)
		}
	}
	if got := proxy.nextID.Load(); got != 3 {
		t.Errorf("expected 3 ids assigned, got %d", got)
	}
}
