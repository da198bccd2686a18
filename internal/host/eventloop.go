package host

import "sync/atomic"

// eventLoop is the task queue spec.md §4.7/§5 describes for the emitted
// script's asynchronous host capabilities (timers, subprocesses, HTTP
// servers): the goja.Runtime is single-threaded, so any callback fired
// from a goroutine (a completed HTTP fetch, a fired timer, a watched file
// event) must be handed back to the one goroutine driving the VM rather
// than called directly.
//
// Grounded on grafana-k6's js/eventloop package (its
// RegisterCallback/Start/WaitOnRegistered contract, reverse-engineered
// from js/eventloop/eventloop_test.go since the implementation itself was
// filtered out of the retrieval pack): a pending counter tracks registered
// but not-yet-fired callbacks, and Start drains the job queue until both
// the driving function and every callback it registered have completed.
type eventLoop struct {
	jobs    chan func()
	pending int32
}

func newEventLoop() *eventLoop {
	return &eventLoop{jobs: make(chan func(), 64)}
}

// registerCallback reserves a pending slot and returns a function that,
// when called from any goroutine, enqueues cb to run on the loop's driving
// goroutine and releases the slot.
func (l *eventLoop) registerCallback() func(cb func()) {
	atomic.AddInt32(&l.pending, 1)
	return func(cb func()) {
		l.jobs <- cb
	}
}

// start runs f on the calling goroutine, then drains registered callbacks
// until none remain pending, running each on the calling goroutine in
// arrival order. The goja.Runtime is only ever touched from here.
func (l *eventLoop) start(f func()) {
	f()
	for atomic.LoadInt32(&l.pending) > 0 {
		job := <-l.jobs
		job()
		atomic.AddInt32(&l.pending, -1)
	}
}
