// Package types holds the JSON contracts shared by the daemon and its clients.
package types

import (
	"fmt"
	"time"
)

// ColorRequest is the body of POST /classify. All channels are required and
// must be within 0..255.
type ColorRequest struct {
	R *int `json:"r"`
	G *int `json:"g"`
	B *int `json:"b"`
}

// NewColorRequest returns a request for the given channels.
func NewColorRequest(r, g, b int) ColorRequest {
	return ColorRequest{R: &r, G: &g, B: &b}
}

// Validate checks that every channel is present and in range.
func (c ColorRequest) Validate() error {
	for _, ch := range []struct {
		name string
		v    *int
	}{{"r", c.R}, {"g", c.G}, {"b", c.B}} {
		if ch.v == nil {
			return fmt.Errorf("missing channel %s", ch.name)
		}
		if *ch.v < 0 || *ch.v > 255 {
			return fmt.Errorf("channel %s must be between 0 and 255, got %d", ch.name, *ch.v)
		}
	}
	return nil
}

// ScheduleStatus is returned by GET /schedule.
type ScheduleStatus struct {
	Schedule string     `json:"schedule"`
	NextRun  *time.Time `json:"nextRun,omitempty"`
	Running  bool       `json:"running"`
}
