package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" job/metric ":  "job_metric",
		"foo..bar":      "foo.bar",
		".lead.trail.":  "lead.trail",
		"multi  space":  "multi__space",
		"bad:name|kind": "bad_name_kind",
	}

	for input, want := range tests {
		if got := metricName(input); got != want {
			t.Fatalf("metricName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestEncodeLine(t *testing.T) {
	t.Parallel()

	global := map[string]string{
		"env": "prod",
		//nolint:gocritic // whitespace is part of the test case
		" service ": " genjobs ",
	}
	local := map[string]string{
		"result": " success ",
		"":       "ignored",
		"env":    "stage",
	}

	got := encodeLine("job.transition", "1", "c", global, local)
	want := "job.transition:1|c|#env:stage,result:success,service:genjobs"
	if got != want {
		t.Fatalf("encodeLine mismatch\n got: %q\nwant: %q", got, want)
	}

	if got := encodeLine("job.duration", "12.5", "ms", nil, nil); got != "job.duration:12.5|ms" {
		t.Fatalf("encodeLine without tags = %q", got)
	}
	if got := encodeLine("", "1", "c", nil, nil); got != "" {
		t.Fatalf("encodeLine with empty name = %q, want empty", got)
	}
}

func TestClientWritesPrefixedLines(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{prefix: "genjobs", conn: clientConn, logger: discardLogger()}
	lines := make(chan string, 1)
	go func() {
		buf := make([]byte, 256)
		n, _ := peerConn.Read(buf)
		lines <- string(buf[:n])
	}()

	client.Timing("job.duration", 1500*time.Millisecond, map[string]string{"transition": "running->succeeded"})

	select {
	case got := <-lines:
		if got != "genjobs.job.duration:1500|ms|#transition:running->succeeded" {
			t.Fatalf("unexpected line %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for metric")
	}
}

func TestClientEnabledAndClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn, logger: discardLogger()}
	if !client.Enabled() {
		t.Fatal("expected client.Enabled to report true with active connection")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client.Enabled to report false after Close")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close (second call) error: %v", err)
	}
	// Dropped silently once closed.
	client.Count("job.transition", 1, nil)

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	nilClient.Count("job.transition", 1, nil)
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil client Close error: %v", err)
	}
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to stay disabled when address is empty")
	}
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	if err == nil {
		t.Fatal("expected NewClient to error for invalid address")
	}
	if !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder
	r.Count("job.transition", 1, map[string]string{"result": "success"})
	r.Gauge("job.pending", 2, nil)
	r.Timing("job.duration", time.Second, nil)

	if got := len(r.Samples()); got != 3 {
		t.Fatalf("Samples() len = %d, want 3", got)
	}
	timings := r.Named("job.duration")
	if len(timings) != 1 || timings[0].Value != 1000 || timings[0].Kind != "timing" {
		t.Fatalf("unexpected timing samples %+v", timings)
	}
}
