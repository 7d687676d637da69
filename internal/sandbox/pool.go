package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xilef-bot/evalbot/internal/evalerr"
)

// DefaultAcquireTimeout bounds the wait for a free slot.
const DefaultAcquireTimeout = 5 * time.Second

var ErrPoolClosed = errors.New("sandbox pool is closed")

// Pool bounds how many evaluations run at once. Sandboxes are never reused:
// every Run gets a fresh global scope.
type Pool struct {
	slots          chan struct{}
	size           int
	acquireTimeout time.Duration
	mu             sync.RWMutex
	closed         bool
	completed      atomic.Int64
	rejected       atomic.Int64
}

// NewPool creates a pool with size slots.
func NewPool(size int, acquireTimeout time.Duration) *Pool {
	if size <= 0 {
		size = 4
	}
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}

	p := &Pool{
		slots:          make(chan struct{}, size),
		size:           size,
		acquireTimeout: acquireTimeout,
	}
	for i := 0; i < size; i++ {
		p.slots <- struct{}{}
	}
	return p
}

// Acquire takes a slot. It fails with evalerr.ErrBusy when none frees up
// within the acquire timeout.
func (p *Pool) Acquire(ctx context.Context) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPoolClosed
	}

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case <-p.slots:
		return nil
	case <-ctx.Done():
		return &evalerr.CanceledError{Cause: ctx.Err()}
	case <-timer.C:
		p.rejected.Add(1)
		return fmt.Errorf("%w: no slot free after %s", evalerr.ErrBusy, p.acquireTimeout)
	}
}

// Release returns a slot taken by Acquire.
func (p *Pool) Release() {
	select {
	case p.slots <- struct{}{}:
	default:
	}
}

// Run evaluates code in a fresh sandbox under a pool slot.
func (p *Pool) Run(ctx context.Context, code string, globals Globals, opts Options) (*Result, error) {
	if err := p.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.Release()
	defer p.completed.Add(1)

	return Run(ctx, code, globals, opts)
}

// Close stops the pool from handing out slots. Runs in flight finish normally.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Stats returns pool statistics.
func (p *Pool) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	available := len(p.slots)
	return map[string]interface{}{
		"size":      p.size,
		"available": available,
		"in_use":    p.size - available,
		"completed": p.completed.Load(),
		"rejected":  p.rejected.Load(),
		"closed":    p.closed,
	}
}
