package panel

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// TimeRange is the half-open range [From, To) in epoch milliseconds the host
// is asked to activate
type TimeRange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// NewTimeRange converts a half-open time range to epoch milliseconds
func NewTimeRange(from, to time.Time) TimeRange {
	return TimeRange{From: from.UnixMilli(), To: to.UnixMilli()}
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)",
		time.UnixMilli(r.From).UTC().Format(time.RFC3339),
		time.UnixMilli(r.To).UTC().Format(time.RFC3339))
}

// Navigator is the host service that changes the dashboard's active time range
type Navigator interface {
	SetTimeRange(ctx context.Context, r TimeRange) error
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(ctx context.Context, r TimeRange) error

// SetTimeRange calls f(ctx, r)
func (f NavigatorFunc) SetTimeRange(ctx context.Context, r TimeRange) error {
	return f(ctx, r)
}

// RecordingNavigator keeps the navigation commands it receives. The preview
// server and tests use it in place of a host.
type RecordingNavigator struct {
	mu     sync.Mutex
	ranges []TimeRange
}

// SetTimeRange records r
func (n *RecordingNavigator) SetTimeRange(ctx context.Context, r TimeRange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ranges = append(n.ranges, r)
	return nil
}

// Ranges returns the recorded commands, oldest first
func (n *RecordingNavigator) Ranges() []TimeRange {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]TimeRange(nil), n.ranges...)
}

// Last returns the most recent command
func (n *RecordingNavigator) Last() (TimeRange, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.ranges) == 0 {
		return TimeRange{}, false
	}
	return n.ranges[len(n.ranges)-1], true
}
