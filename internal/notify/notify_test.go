package notify_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"findmyjob/internal/logging"
	"findmyjob/internal/notify"
)

func TestSignalWireFormat(t *testing.T) {
	ready, err := json.Marshal(notify.Ready())
	if err != nil {
		t.Fatalf("marshal ready: %v", err)
	}
	if string(ready) != `{"event":"backend-ready","payload":true}` {
		t.Fatalf("unexpected ready encoding: %s", ready)
	}

	failure, err := json.Marshal(notify.Error("Backend error: boom"))
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if string(failure) != `{"event":"backend-error","payload":"Backend error: boom"}` {
		t.Fatalf("unexpected error encoding: %s", failure)
	}

	var decoded notify.Signal
	if err := json.Unmarshal(failure, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != notify.Error("Backend error: boom") {
		t.Fatalf("unexpected decoded signal: %+v", decoded)
	}
	if err := json.Unmarshal([]byte(`{"event":"other","payload":1}`), &decoded); err == nil {
		t.Fatal("expected unknown event to be rejected")
	}
}

func TestJSONEmitterConcurrentLinesStayIntact(t *testing.T) {
	var buf bytes.Buffer
	emitter := notify.NewJSONEmitter(&buf, logging.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				emitter.Emit(notify.Ready())
			} else {
				emitter.Emit(notify.Errorf("Backend error: %d", i))
			}
		}(i)
	}
	wg.Wait()

	scanner := bufio.NewScanner(&buf)
	lines := 0
	for scanner.Scan() {
		var s notify.Signal
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			t.Fatalf("line %d is not a signal: %q (%v)", lines, scanner.Text(), err)
		}
		lines++
	}
	if lines != 20 {
		t.Fatalf("expected 20 lines, got %d", lines)
	}
}

func TestChannelEmitterDropsWhenFull(t *testing.T) {
	ch := notify.NewChannelEmitter(1)
	ch.Emit(notify.Ready())
	ch.Emit(notify.Error("second"))

	if got := <-ch.C(); got.Name != notify.NameReady {
		t.Fatalf("unexpected first signal %v", got)
	}
	if ch.Dropped() != 1 {
		t.Fatalf("expected one dropped signal, got %d", ch.Dropped())
	}
}

func TestFanoutAndRecorder(t *testing.T) {
	first, second := notify.NewRecorder(), notify.NewRecorder()
	fan := notify.Fanout{first, nil, second}
	fan.Emit(notify.Error("a"))
	fan.Emit(notify.Ready())

	for _, r := range []*notify.Recorder{first, second} {
		if r.Count(notify.NameReady) != 1 || r.Count(notify.NameError) != 1 {
			t.Fatalf("unexpected counts: %v", r.Signals())
		}
		if errs := r.Errors(); len(errs) != 1 || errs[0] != "a" {
			t.Fatalf("unexpected errors: %v", errs)
		}
	}
}

func TestRecorderWaitFor(t *testing.T) {
	r := notify.NewRecorder()
	time.AfterFunc(50*time.Millisecond, func() { r.Emit(notify.Ready()) })

	if !r.WaitFor(notify.NameReady, 1, time.Second) {
		t.Fatal("expected ready signal")
	}
	if r.WaitFor(notify.NameError, 1, 50*time.Millisecond) {
		t.Fatal("did not expect an error signal")
	}
}

func TestTrackerReduction(t *testing.T) {
	tests := []struct {
		name    string
		signals []notify.Signal
		want    notify.Status
		message string
	}{
		{name: "initial", want: notify.StatusConnecting},
		{name: "ready", signals: []notify.Signal{notify.Ready()}, want: notify.StatusConnected},
		{name: "error before ready", signals: []notify.Signal{notify.Error("port")}, want: notify.StatusError, message: "port"},
		{name: "ready after stream error", signals: []notify.Signal{notify.Error("Backend error: x"), notify.Ready()}, want: notify.StatusConnected},
		{name: "death after ready", signals: []notify.Signal{notify.Ready(), notify.Error("stopped")}, want: notify.StatusFailedAfterReady, message: "stopped"},
		{name: "failure sticks", signals: []notify.Signal{notify.Ready(), notify.Error("stopped"), notify.Ready()}, want: notify.StatusFailedAfterReady, message: "stopped"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := notify.NewTracker()
			for _, s := range tt.signals {
				tracker.Emit(s)
			}
			status, message := tracker.Status()
			if status != tt.want || message != tt.message {
				t.Fatalf("got (%s, %q), want (%s, %q)", status, message, tt.want, tt.message)
			}
		})
	}
}

func TestLogEmitterWritesSignalName(t *testing.T) {
	var buf bytes.Buffer
	notify.NewLogEmitter(slog.New(slog.NewJSONHandler(&buf, nil))).Emit(notify.Error("boom"))

	out := buf.String()
	if !strings.Contains(out, `"signal":"backend-error"`) || !strings.Contains(out, `"level":"WARN"`) {
		t.Fatalf("unexpected log output %q", out)
	}
}
