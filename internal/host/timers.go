package host

import (
	"time"

	"github.com/dop251/goja"
)

type timerState struct {
	timer    *time.Timer
	ticker   *time.Ticker
	stopChan chan struct{}
	release  func(cb func())
}

// setTimeout implements host.setTimeout(fn, delayMs): fn runs once, back
// on the VM's driving goroutine via the event loop, after delayMs.
func (r *Runtime) setTimeout(fn goja.Callable, delayMs int64) int64 {
	r.timerID++
	id := r.timerID
	release := r.loop.registerCallback()

	t := time.AfterFunc(time.Duration(delayMs)*time.Millisecond, func() {
		release(func() {
			if _, exists := r.timers[id]; !exists {
				return
			}
			delete(r.timers, id)
			if _, err := fn(goja.Undefined()); err != nil {
				r.logger.WithError(err).Error("setTimeout callback raised an error")
			}
		})
	})
	r.timers[id] = &timerState{timer: t, release: release}
	return id
}

// clearTimeout implements host.clearTimeout(id): cancels a pending timer
// if it hasn't already fired.
func (r *Runtime) clearTimeout(id int64) {
	if state, ok := r.timers[id]; ok && state.timer != nil {
		if state.timer.Stop() && state.release != nil {
			// The callback will never run; hand its event-loop slot back.
			state.release(func() {})
		}
		delete(r.timers, id)
	}
}

// setInterval implements host.setInterval(fn, periodMs): fn runs
// repeatedly on the VM's driving goroutine until clearInterval(id).
func (r *Runtime) setInterval(fn goja.Callable, periodMs int64) int64 {
	r.timerID++
	id := r.timerID

	ticker := time.NewTicker(time.Duration(periodMs) * time.Millisecond)
	stop := make(chan struct{})
	r.timers[id] = &timerState{ticker: ticker, stopChan: stop}
	// One event-loop slot is held while the interval is active: re-armed
	// on every tick and handed back once clearInterval stops it.
	releaseNext := r.loop.registerCallback()

	go func() {
		for {
			select {
			case <-ticker.C:
				current := releaseNext
				releaseNext = r.loop.registerCallback()
				current(func() {
					if _, exists := r.timers[id]; !exists {
						return
					}
					if _, err := fn(goja.Undefined()); err != nil {
						r.logger.WithError(err).Error("setInterval callback raised an error")
					}
				})
			case <-stop:
				releaseNext(func() {})
				return
			}
		}
	}()
	return id
}

// clearInterval implements host.clearInterval(id): stops a repeating
// timer's ticker goroutine and drops its state.
func (r *Runtime) clearInterval(id int64) {
	if state, ok := r.timers[id]; ok && state.ticker != nil {
		state.ticker.Stop()
		close(state.stopChan)
		delete(r.timers, id)
	}
}
