package push

// Flush blocks until every task accepted before the call has finished.
// The ops queue drains first because ops tasks schedule dispatch work.
func (m *Manager) Flush() {
	m.mu.RLock()
	ops := m.ops
	dispatch := m.dispatch
	m.mu.RUnlock()

	flushQueue(ops)
	flushQueue(dispatch)
}

func flushQueue(q *taskQueue) {
	if q == nil {
		return
	}
	done := make(chan struct{})
	if q.enqueue(func() { close(done) }) {
		<-done
	}
}
