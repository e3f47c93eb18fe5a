package hook

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// QueueSize is the number of events buffered for hooks.
const QueueSize = 32

type job struct {
	hook *Hook
	req  *Request
}

// Dispatcher runs subscribed hooks for each event on a background
// goroutine. Hook failures are logged and never reach the caller.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	queue    chan job
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(m *Manager, e *Executor) *Dispatcher {
	return &Dispatcher{
		manager:  m,
		executor: e,
		queue:    make(chan job, QueueSize),
	}
}

// Notify queues event for every subscribed hook. It never blocks: when the
// queue is full the event is dropped for that hook.
func (d *Dispatcher) Notify(event string, data any) {
	hooks := d.manager.Subscribed(event)
	if len(hooks) == 0 {
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error encoding %s event for hooks: %v", event, err)
		return
	}
	req := &Request{Event: event, Time: time.Now(), Data: raw}

	for _, h := range hooks {
		select {
		case d.queue <- job{hook: h, req: req}:
		default:
			log.Printf("Hook queue full, dropping %s event for %s", event, h.Manifest.Name)
		}
	}
}

// Run executes queued hooks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.queue:
			resp, err := d.executor.Execute(ctx, j.hook, j.req)
			if err != nil {
				log.Printf("Error running hook: %v", err)
				continue
			}
			if !resp.Success {
				log.Printf("Hook %s reported failure: %s", j.hook.Manifest.Name, resp.Error)
			}
		}
	}
}
