package events

import (
	"testing"
	"time"
)

func TestHubPublishSubscribe(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	h.Publish(ScheduleError, ScheduleEvent{Message: "no source", Ts: 42})

	select {
	case ev := <-ch:
		if ev.Name != ScheduleError {
			t.Fatalf("event name = %s, want %s", ev.Name, ScheduleError)
		}
		payload, err := DecodeAs[ScheduleEvent](ev)
		if err != nil {
			t.Fatalf("DecodeAs() error = %v", err)
		}
		if payload.Message != "no source" || payload.Ts != 42 {
			t.Errorf("payload = %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event received")
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after Unsubscribe")
	}
	// A second Unsubscribe must not panic on the closed channel.
	h.Unsubscribe(ch)
	h.Publish(Measurement, struct{}{})
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	for i := 0; i < 100; i++ {
		h.Publish(Measurement, i)
	}
	if got := len(ch); got != cap(ch) {
		t.Errorf("buffered events = %d, want %d", got, cap(ch))
	}
}

func TestNilHubPublish(t *testing.T) {
	var h *EventHub
	h.Publish(Measurement, 1)
}

func TestDecodeAsEmpty(t *testing.T) {
	v, err := DecodeAs[ScheduleEvent](Event{Name: ScheduleUpcoming})
	if err != nil || v != (ScheduleEvent{}) {
		t.Errorf("DecodeAs(empty) = %+v, %v", v, err)
	}
}
