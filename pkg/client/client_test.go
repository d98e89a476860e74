package client

import (
	"context"
	"errors"
	"image"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charlie0129/phmeter/pkg/events"
)

// serveUnix serves handler on a unix socket and returns a client for it.
func serveUnix(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	// Keep the path short, unix socket paths are length limited.
	dir, err := os.MkdirTemp("", "phm")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	sock := filepath.Join(dir, "d.sock")
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatal(err)
	}

	srv := &http.Server{Handler: handler}
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	return NewClient(sock)
}

func TestClientRequests(t *testing.T) {
	var gotBody, gotQuery, gotMethod string
	mux := http.NewServeMux()
	mux.HandleFunc("/scale", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"ph":0,"r":230,"g":27,"b":35,"label":"strong acid"}]`)
	})
	mux.HandleFunc("/classify", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody, gotMethod = string(b), r.Method
		_, _ = io.WriteString(w, `{"point":{"ph":7,"r":76,"g":175,"b":80,"label":"neutral"},"sampled":{"r":76,"g":175,"b":80},"metric":"rgb","distance":0,"position":0.5}`)
	})
	mux.HandleFunc("/measure", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody, gotQuery = string(b), r.URL.RawQuery
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"abc","center":{"X":3,"Y":4},"windowSize":5,"result":{"point":{"ph":2}}}`)
	})
	mux.HandleFunc("/result", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `"no measurement taken yet"`)
	})
	mux.HandleFunc("/metric", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody, gotMethod = string(b), r.Method
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `"set metric to lab"`)
	})
	mux.HandleFunc("/window-size", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `"window size must be odd, got 4"`)
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `"v1.2.3"`)
	})

	c := serveUnix(t, mux)

	points, err := c.GetScale()
	if err != nil {
		t.Fatalf("GetScale() error = %v", err)
	}
	if len(points) != 1 || points[0].R != 230 {
		t.Errorf("GetScale() = %+v", points)
	}

	res, err := c.Classify(76, 175, 80)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if gotMethod != http.MethodPost || gotBody != `{"r":76,"g":175,"b":80}` {
		t.Errorf("Classify sent %s %s", gotMethod, gotBody)
	}
	if res.Point.PH != 7 || res.Position != 0.5 {
		t.Errorf("Classify() = %+v", res)
	}

	m, err := c.Measure([]byte("frame-bytes"), &image.Point{X: 3, Y: 4})
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}
	if gotBody != "frame-bytes" || gotQuery != "x=3&y=4" {
		t.Errorf("Measure sent body %q query %q", gotBody, gotQuery)
	}
	if m.ID != "abc" || m.Result.Point.PH != 2 {
		t.Errorf("Measure() = %+v", m)
	}

	if _, err := c.Measure([]byte("frame-bytes"), nil); err != nil {
		t.Fatal(err)
	}
	if gotQuery != "" {
		t.Errorf("Measure without a point sent query %q", gotQuery)
	}

	if _, err := c.GetResult(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetResult() error = %v, want ErrNotFound", err)
	}

	if _, err := c.SetMetric("lab"); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPut || gotBody != `"lab"` {
		t.Errorf("SetMetric sent %s %s", gotMethod, gotBody)
	}

	_, err = c.SetWindowSize(4)
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("SetWindowSize(4) error = %v, want a 400", err)
	}

	v, err := c.GetVersion()
	if err != nil || v != "v1.2.3" {
		t.Errorf("GetVersion() = %q, %v", v, err)
	}
}

func TestDaemonNotRunning(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	if _, err := c.GetVersion(); !errors.Is(err, ErrDaemonNotRunning) {
		t.Errorf("GetVersion() error = %v, want ErrDaemonNotRunning", err)
	}
}

func TestReadEvents(t *testing.T) {
	stream := "event:measurement\ndata:{\"id\":\"a\"}\n\n" +
		"event:ping\ndata:1700000000\n\n" +
		": comment\n" +
		"event: schedule.error\ndata: {\"message\":\"boom\",\"ts\":1}\n\n"

	ch := make(chan events.Event, 4)
	err := readEvents(context.Background(), strings.NewReader(stream), ch)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("readEvents() error = %v, want io.EOF", err)
	}
	close(ch)

	var got []events.Event
	for ev := range ch {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(got), got)
	}
	if got[0].Name != events.Measurement || string(got[0].Data) != `{"id":"a"}` {
		t.Errorf("first event = %s %s", got[0].Name, got[0].Data)
	}
	payload, err := events.DecodeAs[events.ScheduleEvent](got[1])
	if err != nil {
		t.Fatal(err)
	}
	if got[1].Name != events.ScheduleError || payload.Message != "boom" {
		t.Errorf("second event = %s %+v", got[1].Name, payload)
	}
}

func TestSubscribeEvents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event:measurement\ndata:{\"id\":\"x\"}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	c := serveUnix(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	ch := c.SubscribeEvents(ctx)

	select {
	case ev := <-ch:
		if ev.Name != events.Measurement {
			t.Errorf("event name = %s", ev.Name)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Errorf("expected channel to close after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("channel not closed after cancel")
	}
}
