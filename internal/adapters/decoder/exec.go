// Package decoder runs the external OTDR trace decoder and reads the JSON
// dumps it produces.
package decoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/argos/internal/domain/model"
	"github.com/okian/argos/pkg/logger"
)

// Default decoder configuration constants.
const (
	defaultCommand  = "pyotdr"
	defaultFallback = "python3 -m pyotdr"
	stderrTail      = 512
	tempPattern     = "argos-decode-*"
	waitDelay       = 2 * time.Second
)

// Decoder turns one trace file into its raw decoded sections.
type Decoder interface {
	Decode(ctx context.Context, path string) (model.RawTrace, error)
}

// Exec decodes traces by running an external command. Each call works in its
// own temporary directory holding a copy of the trace, where the command is
// expected to write "<stem>-dump.json".
type Exec struct {
	command  []string
	fallback []string
	timeout  time.Duration
	logger   logger.Logger
}

// NewExec creates an exec decoder with the default pyotdr command.
func NewExec(opts ...Option) *Exec {
	e := &Exec{
		command:  strings.Fields(defaultCommand),
		fallback: strings.Fields(defaultFallback),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decode runs the decoder on path and parses its dump.
func (e *Exec) Decode(ctx context.Context, path string) (model.RawTrace, error) {
	name := filepath.Base(path)
	if len(e.command) == 0 {
		return model.RawTrace{}, fmt.Errorf("%w: %s: %w", ErrDecode, name, ErrNoCommand)
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", tempPattern)
	if err != nil {
		return model.RawTrace{}, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}
	defer os.RemoveAll(dir)

	if err := copyFile(path, filepath.Join(dir, name)); err != nil {
		return model.RawTrace{}, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}

	err = e.run(ctx, dir, e.command, name)
	if errors.Is(err, exec.ErrNotFound) && len(e.fallback) > 0 {
		e.logger.Debug(ctx, "decoder not found, using fallback",
			logger.String("command", e.command[0]),
			logger.String("fallback", strings.Join(e.fallback, " ")))
		err = e.run(ctx, dir, e.fallback, name)
	}
	if err != nil {
		return model.RawTrace{}, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	f, err := os.Open(filepath.Join(dir, stem+dumpSuffix))
	if err != nil {
		return model.RawTrace{}, fmt.Errorf("%w: %s: no dump produced: %w", ErrDecode, name, err)
	}
	defer f.Close()
	return ParseDump(f, name)
}

func (e *Exec) run(ctx context.Context, dir string, argv []string, name string) error {
	args := append(append([]string(nil), argv[1:]...), name)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := tail(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// tail keeps the end of the decoder's stderr, trimmed.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		s = s[len(s)-stderrTail:]
	}
	return s
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Auto routes decoder dumps (*.json) to Dump and everything else to trace.
type Auto struct {
	Trace Decoder
}

// Decode dispatches on the file extension.
func (a Auto) Decode(ctx context.Context, path string) (model.RawTrace, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return Dump{}.Decode(ctx, path)
	}
	return a.Trace.Decode(ctx, path)
}
