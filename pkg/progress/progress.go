// Package progress holds the completion counters of the crawl and download
// stages and the Reporter interface used to display them.
//
// A Counter is owned by a single coordinator goroutine. Workers never touch
// it; they report completion over a channel and the coordinator advances the
// counter and notifies the Reporter.
package progress

import "sync"

// Counter tracks completed units out of a known total
type Counter struct {
	Label     string
	Completed int
	Total     int
}

// NewCounter creates a counter with nothing completed
func NewCounter(label string, total int) *Counter {
	return &Counter{Label: label, Total: total}
}

// Advance marks one more unit complete. Completed never exceeds Total.
func (c *Counter) Advance() {
	if c.Completed < c.Total {
		c.Completed++
	}
}

// Done reports whether every unit has completed
func (c Counter) Done() bool {
	return c.Completed >= c.Total
}

// Percent returns completion in the range [0, 100]
func (c Counter) Percent() float64 {
	if c.Total == 0 {
		return 100
	}
	return float64(c.Completed) * 100 / float64(c.Total)
}

// Reporter displays counter snapshots
type Reporter interface {
	Start(c Counter)
	Update(c Counter)
	Finish(c Counter)
}

// Nop discards all progress
type Nop struct{}

func (Nop) Start(Counter)  {}
func (Nop) Update(Counter) {}
func (Nop) Finish(Counter) {}

// Recorder keeps every snapshot it receives
type Recorder struct {
	mu       sync.Mutex
	Started  []Counter
	Updates  []Counter
	Finished []Counter
}

func (r *Recorder) Start(c Counter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Started = append(r.Started, c)
}

func (r *Recorder) Update(c Counter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Updates = append(r.Updates, c)
}

func (r *Recorder) Finish(c Counter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = append(r.Finished, c)
}

// Last returns the most recent update, if any
func (r *Recorder) Last() (Counter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Updates) == 0 {
		return Counter{}, false
	}
	return r.Updates[len(r.Updates)-1], true
}
