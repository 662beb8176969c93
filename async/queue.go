package async

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Queue holds deferred tasks and runs them one at a time in the order they were
// pushed. Tasks are run either by a background worker started with Start, or
// synchronously by Drain. A panicking task is logged and does not stop the queue.
type Queue struct {
	name    string
	lock    sync.Mutex
	tasks   []func()
	runLock sync.Mutex
	notify  chan struct{}
}

// NewQueue creates an empty queue. The name is attached to log entries.
func NewQueue(name string) *Queue {
	return &Queue{
		name:   name,
		notify: make(chan struct{}, 1),
	}
}

// Push schedules the tasks, in order, to run after every task pushed before them.
// Nil tasks are skipped.
func (q *Queue) Push(fs ...func()) {
	q.lock.Lock()
	n := len(q.tasks)
	for _, f := range fs {
		if f != nil {
			q.tasks = append(q.tasks, f)
		}
	}
	added := len(q.tasks) > n
	q.lock.Unlock()
	if !added {
		return
	}
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of tasks that have not started yet.
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.tasks)
}

// Drain runs every pending task, including tasks pushed while draining, and
// returns how many ran.
func (q *Queue) Drain() int {
	q.runLock.Lock()
	defer q.runLock.Unlock()
	n := 0
	for {
		q.lock.Lock()
		if len(q.tasks) == 0 {
			q.lock.Unlock()
			return n
		}
		f := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.lock.Unlock()
		q.run(f)
		n++
	}
}

// Start drains the queue in a goroutine whenever tasks are pushed, until the
// context is done.
func (q *Queue) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-q.notify:
				q.Drain()
			case <-ctx.Done():
				log.WithField("queue", q.name).Debug("context is closed, exiting")
				return
			}
		}
	}()
}

func (q *Queue) run(f func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("queue", q.name).WithField("panic", r).Error("Deferred task panicked")
		}
	}()
	f()
}
