// Package format adapts source formatters to a single text-in, text-out
// interface. Formatters must be idempotent.
package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrFormatterFailed wraps failures of an external formatter.
var ErrFormatterFailed = errors.New("formatter failed")

// Formatter reformats Python source text.
type Formatter interface {
	Format(src string) (string, error)
}

// Func adapts an ordinary function to the Formatter interface.
type Func func(src string) (string, error)

// Format calls f(src).
func (f Func) Format(src string) (string, error) {
	return f(src)
}

// Chain applies formatters in order, stopping at the first error.
type Chain []Formatter

// Format runs every formatter of the chain.
func (c Chain) Format(src string) (string, error) {
	out := src
	for _, f := range c {
		var err error
		if out, err = f.Format(out); err != nil {
			return "", err
		}
	}
	return out, nil
}

// DefaultCommandTimeout bounds a Command without an explicit Timeout.
const DefaultCommandTimeout = 30 * time.Second

// Command pipes source through an external program, such as
// "ruff format -" or "black -q -", reading the result from stdout.
type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// Format runs the command with src on stdin.
func (c *Command) Format(src string) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = strings.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("%w: %s: %w", ErrFormatterFailed, c.Path, err)
		}
		return "", fmt.Errorf("%w: %s: %w: %s", ErrFormatterFailed, c.Path, err, msg)
	}
	return stdout.String(), nil
}

// String returns the command line.
func (c *Command) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}
