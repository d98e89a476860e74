package events

import "encoding/json"

// Event name constants
const (
	// Measurement carries a meter.Measurement each time the daemon completes one.
	Measurement = "measurement"
	// ScheduleUpcoming is sent shortly before a scheduled capture.
	ScheduleUpcoming = "schedule.upcoming"
	// ScheduleError is sent when a scheduled capture fails.
	ScheduleError = "schedule.error"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// ScheduleEvent is the typed payload for schedule.upcoming and schedule.error.
type ScheduleEvent struct {
	At      int64  `json:"at,omitempty"`
	Message string `json:"message,omitempty"`
	Ts      int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	m, err := events.DecodeAs[meter.Measurement](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(m.Result.Point.PH)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
