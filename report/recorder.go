package report

import (
	"fmt"
	"sync"

	"github.com/ytget/mediadl/types"
)

// Event is one call recorded by Recorder.
type Event struct {
	Kind    string
	Message string
	Fields  []types.Field
}

// Recorder keeps every event in memory. It is meant for tests and for
// library callers that render output themselves.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the recorded events of kind.
func (r *Recorder) Kinds(kind string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Status(msg string) { r.add(Event{Kind: "status", Message: msg}) }
func (r *Recorder) Info(msg string)   { r.add(Event{Kind: "info", Message: msg}) }
func (r *Recorder) Warn(msg string)   { r.add(Event{Kind: "warn", Message: msg}) }
func (r *Recorder) Error(msg string)  { r.add(Event{Kind: "error", Message: msg}) }

func (r *Recorder) Details(title string, fields []types.Field) {
	r.add(Event{Kind: "details", Message: title, Fields: fields})
}

func (r *Recorder) Progress(name string, downloaded, total int64) {
	r.add(Event{Kind: "progress", Message: fmt.Sprintf("%s %d/%d", name, downloaded, total)})
}

func (r *Recorder) Saved(name, path string) {
	r.add(Event{Kind: "saved", Message: name + " " + path})
}
