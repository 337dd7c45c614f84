package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/santiagomed/stepseq/logger"
)

// RunRequest is a sequencer waiting for a worker.
type RunRequest struct {
	Sequencer  *Sequencer
	ResultChan chan error
	CreatedAt  time.Time
}

// Engine runs sequencers on background workers, leaving the caller's
// goroutine free for the presentation loop.
type Engine struct {
	logger       logger.Logger
	requests     chan RunRequest
	workers      int
	workerWG     sync.WaitGroup
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func NewEngine(l logger.Logger, workers int) *Engine {
	if l == nil {
		l = logger.NewNullLogger()
	}
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		logger:       l,
		requests:     make(chan RunRequest, 16),
		workers:      workers,
		shutdownChan: make(chan struct{}),
	}
}

func (e *Engine) Start(ctx context.Context) {
	for i := 0; i < e.workers; i++ {
		e.workerWG.Add(1)
		go e.worker(ctx)
	}
}

// worker keeps serving requests until Shutdown. Once ctx is done, requests
// are answered with ErrCancelled instead of being run.
func (e *Engine) worker(ctx context.Context) {
	defer e.workerWG.Done()
	for {
		select {
		case req := <-e.requests:
			e.handle(ctx, req)
		case <-e.shutdownChan:
			e.drain(errors.New("engine is shut down"))
			return
		}
	}
}

func (e *Engine) handle(ctx context.Context, req RunRequest) {
	defer close(req.ResultChan)
	if err := ctx.Err(); err != nil {
		e.logger.Debug("Dropping sequencer run " + req.Sequencer.RunID() + ", engine context is done")
		req.ResultChan <- fmt.Errorf("%w: %w", ErrCancelled, err)
		return
	}
	e.logger.Debug(fmt.Sprintf("Worker picked up sequencer run %s after %s", req.Sequencer.RunID(), time.Since(req.CreatedAt)))
	req.ResultChan <- req.Sequencer.Run(ctx)
}

// drain answers every request still queued with err.
func (e *Engine) drain(err error) {
	for {
		select {
		case req := <-e.requests:
			req.ResultChan <- err
			close(req.ResultChan)
		default:
			return
		}
	}
}

// AddRequest queues seq and returns a channel that receives the result of
// its run.
func (e *Engine) AddRequest(seq *Sequencer) chan error {
	resultChan := make(chan error, 1)
	select {
	case e.requests <- RunRequest{
		Sequencer:  seq,
		ResultChan: resultChan,
		CreatedAt:  time.Now(),
	}:
	case <-e.shutdownChan:
		resultChan <- errors.New("engine is shut down")
		close(resultChan)
	}
	return resultChan
}

func (e *Engine) Shutdown(timeout time.Duration) {
	e.shutdownOnce.Do(func() { close(e.shutdownChan) })

	done := make(chan struct{})
	go func() {
		e.workerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("All workers shut down gracefully")
	case <-time.After(timeout):
		e.logger.Warn("Shutdown timed out, some workers may still be running")
	}
}
