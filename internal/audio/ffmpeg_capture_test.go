package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lucid/internal/domain"
	"lucid/internal/ports"
)

func TestFFmpegCaptureStartReadAndStop(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf 'hello'\nsleep 2\n")
	capture := NewFFmpegCapture(script)

	session, err := capture.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	buf := make([]byte, 8)
	n, readErr := session.Read(buf)
	if n <= 0 {
		t.Fatalf("expected audio bytes, got n=%d err=%v", n, readErr)
	}
	if !strings.Contains(string(buf[:n]), "hello") {
		t.Fatalf("unexpected bytes: %q", string(buf[:n]))
	}

	if err := session.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestFFmpegCaptureMissingCommandIsUnsupported(t *testing.T) {
	t.Parallel()

	capture := NewFFmpegCapture(filepath.Join(t.TempDir(), "nope"))

	_, err := capture.Start(context.Background(), ports.AudioConfig{})
	var captureErr *domain.CaptureError
	if !errors.As(err, &captureErr) || captureErr.Kind != domain.CaptureUnsupported {
		t.Fatalf("expected unsupported capture error, got %v", err)
	}
}

func TestFFmpegCaptureEarlyExitClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		stderr string
		want   domain.CaptureErrorKind
	}{
		{"permission denied", "pulse: Permission denied", domain.CapturePermissionDenied},
		{"no device", "default: No such device", domain.CaptureNoDevice},
		{"generic failure", "boom", domain.CaptureUnavailable},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			script := writeScript(t, "fail.sh",
				"#!/usr/bin/env bash\necho '"+tc.stderr+"' 1>&2\nexit 1\n")
			capture := NewFFmpegCapture(script)

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			_, err := capture.Start(ctx, ports.AudioConfig{})
			var captureErr *domain.CaptureError
			if !errors.As(err, &captureErr) {
				t.Fatalf("expected capture error, got %v", err)
			}
			if captureErr.Kind != tc.want {
				t.Fatalf("expected kind %s, got %s (%v)", tc.want, captureErr.Kind, err)
			}
		})
	}
}

func TestNormalizeStopErrExitErrorIsIgnored(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-lc", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := normalizeStopErr(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
