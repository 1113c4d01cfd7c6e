package pdftext

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// maxDiagnostics caps the stderr text kept for logs and result warnings.
const maxDiagnostics = 2 << 10

// Runner executes an external command and returns its captured output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct {
	Logger *slog.Logger
	// WaitDelay bounds how long a cancelled command may keep its pipes open.
	WaitDelay time.Duration
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = 2 * time.Second
	}

	started := time.Now()
	err := cmd.Run()
	attrs := []any{
		"bin", filepath.Base(name),
		"duration_ms", time.Since(started).Milliseconds(),
		"stdout_bytes", stdout.Len(),
	}
	if err == nil {
		logger.Debug("pdftext.exec.done", attrs...)
		return stdout.Bytes(), stderr.Bytes(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		attrs = append(attrs, "exit_code", exitErr.ExitCode())
	}
	if ctx.Err() != nil {
		// killed on deadline; report the context error rather than "signal: killed"
		err = ctx.Err()
	}
	attrs = append(attrs, "error", err, "stderr", popplerDiagnostics(stderr.Bytes()))
	logger.Warn("pdftext.exec.failed", attrs...)
	return stdout.Bytes(), stderr.Bytes(), err
}

// popplerDiagnostics folds pdftotext stderr into one line. Poppler repeats the
// same "Syntax Error" for every broken object, so duplicates are dropped.
func popplerDiagnostics(stderr []byte) string {
	seen := map[string]bool{}
	var kept []string
	for _, line := range strings.Split(string(stderr), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		kept = append(kept, line)
	}
	out := strings.Join(kept, "; ")
	if len(out) > maxDiagnostics {
		cut := maxDiagnostics
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut] + "..."
	}
	return out
}
