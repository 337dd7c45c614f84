package core

import (
	"context"
	"runtime"
	"sync"

	"github.com/santiagomed/stepseq/logger"
)

type queuedTask struct {
	fn   func()
	done chan struct{}
}

// MainQueue is a serial task queue pinned to one OS thread. It is the
// presentation context for steps that need thread affinity. Tasks run one at
// a time, in submission order.
//
// A task must not call Dispatch on the queue that is running it.
type MainQueue struct {
	logger       logger.Logger
	tasks        chan queuedTask
	shutdownChan chan struct{}
	startOnce    sync.Once
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewMainQueue(l logger.Logger) *MainQueue {
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &MainQueue{
		logger:       l,
		tasks:        make(chan queuedTask),
		shutdownChan: make(chan struct{}),
	}
}

// Start launches the queue goroutine. Calling it more than once is harmless.
func (q *MainQueue) Start() {
	q.startOnce.Do(func() {
		q.wg.Add(1)
		go q.loop()
	})
}

func (q *MainQueue) loop() {
	defer q.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case t := <-q.tasks:
			t.fn()
			close(t.done)
		case <-q.shutdownChan:
			q.logger.Debug("Main queue stopped")
			return
		}
	}
}

// Dispatch hands fn to the queue and waits for it to finish. Once the queue
// has accepted fn, Dispatch waits for it even if ctx is cancelled.
func (q *MainQueue) Dispatch(ctx context.Context, fn func()) error {
	t := queuedTask{fn: fn, done: make(chan struct{})}
	select {
	case q.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.shutdownChan:
		return ErrQueueStopped
	}
	<-t.done
	return nil
}

// Stop ends the queue after the task in progress, if any, returns.
func (q *MainQueue) Stop() {
	q.stopOnce.Do(func() { close(q.shutdownChan) })
	q.wg.Wait()
}
