// internal/board/scheduler.go
//
// Deferred-task scheduling for the engine. Production uses real timers;
// tests inject a manual scheduler so timing-dependent transitions
// (line-clear commit, dock regeneration, stuck detection) run
// deterministically.

package board

import "time"

// Scheduler runs fn once after d. Implementations need not support
// cancellation: every scheduled closure carries a round or epoch token
// and self-cancels if the engine has moved on by the time it fires.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// TimerScheduler is the production Scheduler backed by time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
