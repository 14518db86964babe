package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TheImagingSource/tiscamera/internal/config"
	"github.com/TheImagingSource/tiscamera/internal/gige"
)

// newDaemonStack wires a stack against a fake daemon serving one camera and
// counts the requests it receives.
func newDaemonStack(t *testing.T) (*stack, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/cameras":
			fmt.Fprint(w, `{"result":{"cameras":[{"serial_number":"47000001","interface_name":"eth0","is_reachable":true}]}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/cameras/47000001":
			fmt.Fprint(w, `{"result":{"camera":{"serial_number":"47000001","interface_name":"eth0","is_reachable":true}}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/cameras/47000001/firmware":
			fmt.Fprintln(w, `{"message":"writing","progress":50}`)
			fmt.Fprintln(w, `{"done":true,"status":0}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Bridge: config.BridgeConfig{URL: srv.URL, Timeout: 2 * time.Second},
		Upload: config.UploadConfig{Timeout: 5 * time.Second},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newStack(cfg, log, nil), &requests
}

func writeFirmwareFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cam.fwpack")
	if err := os.WriteFile(path, []byte("firmware"), 0o644); err != nil {
		t.Fatalf("writing firmware file: %v", err)
	}
	return path
}

func TestRunUpload(t *testing.T) {
	s, requests := newDaemonStack(t)

	var out bytes.Buffer
	if err := runUpload(context.Background(), s, "47000001", writeFirmwareFile(t), nil, &out, true); err != nil {
		t.Fatalf("runUpload failed: %v", err)
	}
	if requests.Load() != 3 {
		t.Errorf("Expected discover, details and upload requests, got %d", requests.Load())
	}
	if !strings.Contains(out.String(), " 50% writing") {
		t.Errorf("Expected progress in output, got %q", out.String())
	}
}

func TestRunUploadMissingFileSkipsDaemon(t *testing.T) {
	s, requests := newDaemonStack(t)

	missing := filepath.Join(t.TempDir(), "missing.fwpack")
	err := runUpload(context.Background(), s, "47000001", missing, nil, io.Discard, true)
	if !errors.Is(err, gige.ErrFileNotFoundOrInvalid) {
		t.Fatalf("Expected ErrFileNotFoundOrInvalid, got %v", err)
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("Expected no daemon requests, got %d", n)
	}
}

func TestRunUploadDeclined(t *testing.T) {
	s, requests := newDaemonStack(t)

	var out bytes.Buffer
	err := runUpload(context.Background(), s, "47000001", writeFirmwareFile(t), strings.NewReader("n\n"), &out, false)
	if !errors.Is(err, errDeclined) {
		t.Fatalf("Expected errDeclined, got %v", err)
	}
	if !strings.Contains(out.String(), "!!! IMPORTANT NOTE !!!") {
		t.Errorf("Expected the firmware note, got %q", out.String())
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("Expected no daemon requests, got %d", n)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" y \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yy\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		if got := confirm(strings.NewReader(tt.input), &out, "Proceed?"); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if out.String() != "Proceed? [y/N] " {
			t.Errorf("Unexpected prompt %q", out.String())
		}
	}
}

func TestPrintControl(t *testing.T) {
	var buf bytes.Buffer
	printControl(&buf, gige.ControlInfo{})
	if buf.String() != "Camera is not controlled by anyone.\n" {
		t.Errorf("Unexpected output for idle camera: %q", buf.String())
	}

	buf.Reset()
	printControl(&buf, gige.ControlInfo{Busy: true, Address: "192.168.1.5", Port: 3956, HeartbeatTimeout: 3 * time.Second})
	for _, want := range []string{"Controlling IP: 192.168.1.5:3956", "Heartbeat Duration: 3000000 µs"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, buf.String())
		}
	}
}
