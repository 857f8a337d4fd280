package worker

import (
	"context"
	"fmt"
	"os"

	"github.com/stamerd/stosufy/src/features/extracting"
)

// Executor runs proxied operations with the host context's native
// capabilities. Workers own no durable state; this is where their effects
// actually happen.
type Executor struct {
	transcoder extracting.Transcoder
}

// NewExecutor creates an executor backed by the real filesystem and the
// given transcoder.
func NewExecutor(transcoder extracting.Transcoder) *Executor {
	return &Executor{transcoder: transcoder}
}

// Execute performs one proxied operation and builds its correlated reply.
func (e *Executor) Execute(ctx context.Context, m Message) Message {
	result, err := e.execute(ctx, m)
	reply := Message{Kind: KindFSResponse, RequestID: m.RequestID, Result: result}
	if err != nil {
		reply.Err = err.Error()
		reply.Result = nil
	}
	return reply
}

func (e *Executor) execute(ctx context.Context, m Message) (any, error) {
	switch m.Op {
	case OpMkdir:
		return nil, os.MkdirAll(m.Args[0], 0755)
	case OpExists:
		_, err := os.Stat(m.Args[0])
		if os.IsNotExist(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	case OpWriteFile:
		return nil, os.WriteFile(m.Args[0], m.Data, 0644)
	case OpReadFile:
		return os.ReadFile(m.Args[0])
	case OpReadTextFile:
		data, err := os.ReadFile(m.Args[0])
		if err != nil {
			return nil, err
		}
		return string(data), nil
	case OpRemove:
		return nil, os.RemoveAll(m.Args[0])
	case OpTranscode:
		return nil, e.transcoder.Transcode(ctx, m.Args[0], m.Args[1])
	default:
		return nil, fmt.Errorf("unknown operation %q", m.Op)
	}
}
