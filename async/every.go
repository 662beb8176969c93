// Package async includes helpers for running work outside the caller's
// goroutine: periodic tasks and ordered queues of deferred tasks.
package async

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// RunEvery calls f once per period in a goroutine until ctx is done. The name is
// attached to log entries. A panicking call is logged and the next tick still runs.
func RunEvery(ctx context.Context, name string, period time.Duration, f func()) {
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runTick(name, f)
			case <-ctx.Done():
				log.WithField("task", name).Debug("context is closed, exiting")
				return
			}
		}
	}()
}

func runTick(name string, f func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("task", name).WithField("panic", r).Error("Periodic task panicked")
		}
	}()
	log.WithField("task", name).Trace("running")
	f()
}
