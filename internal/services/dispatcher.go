package services

import (
	"context"
	"errors"
	"sync"

	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/logger"
	"github.com/vladimiradmaev/mediplus/internal/metrics"
)

// Dispatcher serializes remote calls per named slot so that only the newest
// call for a slot may publish its result.
type Dispatcher struct {
	mu      sync.Mutex
	slots   map[string]*slotState
	metrics *metrics.AIMetrics
}

// slotState lives while at least one Run holds it. applyMu orders result
// delivery within the slot; mu guards everything else.
type slotState struct {
	applyMu sync.Mutex
	gen     uint64
	refs    int
	cancel  context.CancelFunc
}

func NewDispatcher(m *metrics.AIMetrics) *Dispatcher {
	return &Dispatcher{slots: make(map[string]*slotState), metrics: m}
}

func (d *Dispatcher) begin(ctx context.Context, slot string) (context.Context, context.CancelFunc, *slotState, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.slots[slot]
	if s == nil {
		s = &slotState{}
		d.slots[slot] = s
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	s.refs++
	callCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return callCtx, cancel, s, s.gen
}

// settle reports whether the call of generation gen still owns slot and,
// if so, releases its cancel func.
func (d *Dispatcher) settle(slot string, s *slotState, gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.slots[slot] != s || s.gen != gen {
		return false
	}
	s.cancel = nil
	return true
}

func (d *Dispatcher) release(slot string, s *slotState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s.refs--
	if s.refs == 0 && d.slots[slot] == s {
		delete(d.slots, slot)
	}
}

// Cancel aborts the in-flight call of slot, if any. Its result is discarded.
func (d *Dispatcher) Cancel(slot string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.slots[slot]
	if s == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	if s.refs == 0 {
		delete(d.slots, slot)
	}
}

// Generation returns the current generation of slot, or 0 when no call
// holds it.
func (d *Dispatcher) Generation(slot string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s := d.slots[slot]; s != nil {
		return s.gen
	}
	return 0
}

// Run cancels whatever call currently owns slot and runs call in its place.
// When call finishes while still owning the slot, apply receives its result
// and Run returns call's error. A call that was overtaken returns
// ErrSuperseded; one whose context was cancelled returns a cancellation
// error. apply is not invoked in either case.
//
// apply runs under a lock private to slot, so results of one slot are
// delivered in generation order while other slots proceed.
func Run[T any](ctx context.Context, d *Dispatcher, slot string, call func(context.Context) (T, error), apply func(T, error)) error {
	callCtx, cancel, s, gen := d.begin(ctx, slot)
	defer cancel()
	defer d.release(slot, s)

	res, err := call(callCtx)

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	if !d.settle(slot, s, gen) {
		d.metrics.ObserveSuperseded(slot)
		logger.WithComponent("dispatcher").Debug("Result superseded", "slot", slot)
		return apperrors.ErrSuperseded
	}
	if errors.Is(callCtx.Err(), context.Canceled) || apperrors.IsCancelled(err) {
		if err == nil {
			err = callCtx.Err()
		}
		return apperrors.NewCancelledError(err)
	}
	if apply != nil {
		apply(res, err)
	}
	return err
}
