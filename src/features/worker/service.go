package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stamerd/stosufy/src/features/config"
	"github.com/stamerd/stosufy/src/features/extracting"
)

// Service runs extractions on isolated worker goroutines. Each job gets its
// own worker and channel pair; the worker drives the extractor against the
// proxy while the host side executes the proxied effects and routes
// notifications back to the caller.
type Service struct {
	config   *config.Manager
	executor *Executor
}

// NewService creates the worker service. The transcoder stays host-owned;
// workers reach it only through the proxy.
func NewService(cfg *config.Manager, transcoder extracting.Transcoder) *Service {
	return &Service{
		config:   cfg,
		executor: NewExecutor(transcoder),
	}
}

// Extract processes one archive on a fresh worker and blocks until its
// terminal message. onProgress receives checkpoint percentages as the worker
// reports them; it may be nil.
func (s *Service) Extract(ctx context.Context, setID string, archive []byte, onProgress func(int)) (*extracting.Result, error) {
	workerID := uuid.New().String()[:8]
	logger := slog.With("worker", workerID, "setID", setID)
	logger.Debug("Starting extraction worker")

	toHost := make(chan Message, 16)
	toWorker := make(chan Message, 16)
	proxy := NewProxy(toHost)

	req := extracting.Request{
		SetID:       setID,
		Archive:     archive,
		SongsDir:    s.config.Get().SongsPath,
		ExtractBase: s.config.Get().ExtractPath,
	}

	// The typed error crosses back alongside the protocol's error message
	// so callers keep errors.Is/As over the taxonomy.
	var runErr error

	go func() {
		defer close(toHost)
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("worker crashed: %v", r)
				logger.Error("Extraction worker panicked", "panic", r)
			}
		}()

		// Reply pump: resolves the proxy's pending futures.
		go func() {
			for m := range toWorker {
				proxy.Dispatch(m)
			}
		}()

		extractor := extracting.New(proxy, proxy)
		result, err := extractor.Extract(ctx, req, func(percent int) {
			proxy.Notify(Message{Kind: KindProgress, SetID: setID, Percent: percent})
		})
		if err != nil {
			runErr = err
			proxy.Notify(Message{Kind: KindError, SetID: setID, Err: err.Error()})
			return
		}
		proxy.Notify(Message{Kind: KindExtractComplete, SetID: setID, Complete: &ExtractComplete{
			SetID:          setID,
			AudioData:      result.AudioData,
			AudioPath:      result.AssetPaths[0],
			VariantID:      result.VariantID,
			AssetPaths:     result.AssetPaths,
			MultipleAudios: result.MultipleAudios,
			Title:          result.Title,
			Artist:         result.Artist,
		}})
	}()

	var complete *ExtractComplete
	var relayed string
	for m := range toHost {
		switch m.Kind {
		case KindFSRequest:
			toWorker <- s.executor.Execute(ctx, m)
		case KindProgress:
			if onProgress != nil {
				onProgress(m.Percent)
			}
		case KindExtractComplete:
			complete = m.Complete
		case KindError:
			relayed = m.Err
		}
	}
	close(toWorker)

	if runErr != nil {
		return nil, runErr
	}
	if relayed != "" {
		return nil, &ProxyError{Message: relayed}
	}
	if complete == nil {
		return nil, fmt.Errorf("worker %s finished without a terminal message", workerID)
	}

	logger.Debug("Extraction worker finished", "assets", len(complete.AssetPaths))
	return &extracting.Result{
		AssetPaths:     complete.AssetPaths,
		VariantID:      complete.VariantID,
		MultipleAudios: complete.MultipleAudios,
		AudioData:      complete.AudioData,
		Title:          complete.Title,
		Artist:         complete.Artist,
	}, nil
}
