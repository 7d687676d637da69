package sandbox

import (
	"math"
	"time"

	"github.com/dop251/goja"
)

type timer struct {
	id     int64
	due    time.Time
	every  time.Duration
	repeat bool
	fn     goja.Callable
	args   []goja.Value
}

// timerQueue holds callbacks scheduled through the timers module. Callbacks
// only run while a deferred result is being awaited.
type timerQueue struct {
	seq    int64
	timers map[int64]*timer
}

func newTimerQueue() *timerQueue {
	return &timerQueue{timers: make(map[int64]*timer)}
}

func (q *timerQueue) schedule(fn goja.Callable, delay time.Duration, repeat bool, args []goja.Value) int64 {
	q.seq++
	t := &timer{
		id:     q.seq,
		due:    time.Now().Add(delay),
		every:  delay,
		repeat: repeat,
		fn:     fn,
		args:   args,
	}
	q.timers[t.id] = t
	return t.id
}

func (q *timerQueue) cancel(id int64) {
	delete(q.timers, id)
}

// next returns the earliest due timer, ties broken by scheduling order.
func (q *timerQueue) next() *timer {
	var best *timer
	for _, t := range q.timers {
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.id < best.id) {
			best = t
		}
	}
	return best
}

// advance removes a one-shot timer or moves an interval to its next slot.
// It runs before the callback so the callback may clear or reschedule.
func (q *timerQueue) advance(t *timer) {
	if !t.repeat {
		delete(q.timers, t.id)
		return
	}
	t.due = time.Now().Add(t.every)
}

func (q *timerQueue) len() int { return len(q.timers) }

// delayOf converts a JS delay argument; like node, anything below 1ms or not
// a finite number becomes 1ms.
func delayOf(v goja.Value) time.Duration {
	ms := 1.0
	if v != nil && !goja.IsUndefined(v) {
		ms = v.ToFloat()
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 1 {
		ms = 1
	}
	return time.Duration(ms * float64(time.Millisecond))
}

func (s *Sandbox) timersModule(vm *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)

	schedule := func(repeat, immediate bool) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			fn, ok := goja.AssertFunction(call.Argument(0))
			if !ok {
				panic(vm.NewTypeError("The \"callback\" argument must be of type function. Received " + describeType(call.Argument(0))))
			}
			delay, rest := time.Duration(0), 1
			if !immediate {
				delay, rest = delayOf(call.Argument(1)), 2
			}
			var args []goja.Value
			if len(call.Arguments) > rest {
				args = append(args, call.Arguments[rest:]...)
			}
			return vm.ToValue(s.timers.schedule(fn, delay, repeat, args))
		}
	}
	clear := func(call goja.FunctionCall) goja.Value {
		if id := call.Argument(0); !goja.IsUndefined(id) && !goja.IsNull(id) {
			s.timers.cancel(id.ToInteger())
		}
		return goja.Undefined()
	}

	exports.Set("setTimeout", schedule(false, false))
	exports.Set("setInterval", schedule(true, false))
	exports.Set("setImmediate", schedule(false, true))
	exports.Set("clearTimeout", clear)
	exports.Set("clearInterval", clear)
	exports.Set("clearImmediate", clear)
}
