package push

import "sync"

// taskQueue runs enqueued funcs on a single worker goroutine, in order.
// The manager uses one queue to serialize state mutations and a second
// one to serialize observer callbacks.
type taskQueue struct {
	tasks chan func()
	done  chan struct{}
	wg    sync.WaitGroup

	stopOnce sync.Once
}

// newTaskQueue creates a queue with the given buffer size and starts its
// worker goroutine.
func newTaskQueue(size int) *taskQueue {
	q := &taskQueue{
		tasks: make(chan func(), size),
		done:  make(chan struct{}),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *taskQueue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			// Drain tasks accepted before the stop.
			for {
				select {
				case task := <-q.tasks:
					task()
				default:
					return
				}
			}
		case task := <-q.tasks:
			task()
		}
	}
}

// enqueue submits fn to the worker. Reports whether the task was
// accepted; accepted tasks always run before stop returns. A stopped
// queue rejects all tasks.
func (q *taskQueue) enqueue(fn func()) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case <-q.done:
		return false
	case q.tasks <- fn:
		// A send racing stop can land after the drain exited; such a
		// task never runs and must not be reported as accepted.
		select {
		case <-q.done:
			return false
		default:
			return true
		}
	}
}

// stop shuts the worker down after the in-flight task and any already
// accepted tasks have finished. Safe to call more than once.
func (q *taskQueue) stop() {
	q.stopOnce.Do(func() { close(q.done) })
	q.wg.Wait()
}
