package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/bcvm/pkg/bytecode"
	"github.com/chazu/bcvm/pkg/dist"
	"github.com/chazu/bcvm/store"
)

// Outcome is the result of one program run on the worker.
type Outcome struct {
	ChunkID string
	Result  int32
	Err     error
	Steps   int
}

// runRequest represents a unit of work to be executed on the worker goroutine.
type runRequest struct {
	fn   func() interface{}
	done chan runResult
}

// runResult holds the return value from a worker operation.
type runResult struct {
	value interface{}
	err   error
}

// RunWorker serializes program runs through a single goroutine so that
// editor commands never execute two programs at once, and records each
// run in the ledger when one is configured.
type RunWorker struct {
	opts     bytecode.Options
	ledger   *store.Store
	requests chan runRequest
	quit     chan struct{}
	stopOnce sync.Once
}

// DefaultMaxSteps is the instruction budget used for editor runs when the
// options leave MaxSteps unlimited.
const DefaultMaxSteps = 1_000_000

// NewRunWorker creates a RunWorker and starts the processing goroutine.
// ledger may be nil. A zero opts.MaxSteps is replaced by DefaultMaxSteps.
func NewRunWorker(opts bytecode.Options, ledger *store.Store) *RunWorker {
	if opts.MaxSteps == 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	w := &RunWorker{
		opts:     opts,
		ledger:   ledger,
		requests: make(chan runRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *RunWorker) loop() {
	for {
		select {
		case req := <-w.requests:
			result := w.execute(req.fn)
			req.done <- result
		case <-w.quit:
			return
		}
	}
}

// execute runs a function, recovering from panics.
func (w *RunWorker) execute(fn func() interface{}) runResult {
	var result runResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("%v", r)
			}
		}()
		result.value = fn()
	}()
	return result
}

// Do submits a function for execution on the worker goroutine and blocks
// until it completes. Returns the result and any error (including panics).
func (w *RunWorker) Do(fn func() interface{}) (interface{}, error) {
	req := runRequest{
		fn:   fn,
		done: make(chan runResult, 1),
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, fmt.Errorf("run worker stopped")
	}
	select {
	case result := <-req.done:
		return result.value, result.err
	case <-w.quit:
		return nil, fmt.Errorf("run worker stopped")
	}
}

// Run executes program text on the worker.
func (w *RunWorker) Run(ctx context.Context, text string) (Outcome, error) {
	v, err := w.Do(func() interface{} {
		return w.run(ctx, text)
	})
	if err != nil {
		return Outcome{}, err
	}
	return v.(Outcome), nil
}

func (w *RunWorker) run(ctx context.Context, text string) Outcome {
	prog := bytecode.Parse(text)
	chunk := dist.NewChunk(prog)
	interp := bytecode.NewForProgram(prog, w.opts)

	started := time.Now()
	result, err := interp.RunContext(ctx)
	out := Outcome{ChunkID: chunk.ID(), Result: result, Err: err, Steps: interp.Steps()}

	if w.ledger != nil {
		if perr := w.ledger.PutChunk(chunk); perr != nil {
			log.Errorf("storing chunk %s: %s", out.ChunkID, perr)
			return out
		}
		r := store.NewRun(chunk.Hash, result, err, out.Steps, started)
		if perr := w.ledger.RecordRun(&r); perr != nil {
			log.Errorf("recording run of %s: %s", out.ChunkID, perr)
		}
	}
	return out
}

// Stop shuts down the worker goroutine. It is safe to call more than once.
func (w *RunWorker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}
