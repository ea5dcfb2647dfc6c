package notify

import "sync"

// Event is a single recorded notification.
type Event struct {
	Stage   string
	Message string
	Err     error
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu        sync.Mutex
	successes []Event
	failures  []Event
}

func (r *Recorder) Success(stage, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, Event{Stage: stage, Message: message})
}

func (r *Recorder) Failure(stage string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, Event{Stage: stage, Err: err})
}

// Successes returns the completion notifications in arrival order.
func (r *Recorder) Successes() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.successes...)
}

// Failures returns the failure notifications in arrival order.
func (r *Recorder) Failures() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.failures...)
}

// Messages returns the completion messages in arrival order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.successes))
	for i, e := range r.successes {
		out[i] = e.Message
	}
	return out
}
