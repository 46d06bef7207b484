// Package cliexec runs external agent CLI processes in buffered and streaming
// modes, enforcing turn-level deadlines and guaranteeing process termination
// on every exit path.
package cliexec

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/sharmasuraj0123/xo-cowork-api/agentstream"
)

// LineDecoder translates one raw stdout line into zero or more normalized
// events. Implementations are per-turn stateful (e.g. final-summary
// suppression, thread id capture) and must never fail on malformed input;
// absence of expected structure degrades to "no events".
type LineDecoder interface {
	DecodeLine(line []byte) []agentstream.Event
}

// maxLineSize bounds a single stdout line; agent CLIs can emit large
// tool-result payloads on one line.
const maxLineSize = 1024 * 1024

// Runner executes CLI processes. The zero value is usable with no deadline;
// set Timeout to bound buffered waits and individual stream line reads.
type Runner struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Run executes argv to completion and returns trimmed stdout.
//
// A non-zero exit yields a *ProcessError carrying the exit code and trimmed
// stderr. Exceeding the deadline kills the process and yields a
// *TimeoutError.
func (r *Runner) Run(ctx context.Context, argv []string, workDir string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if workDir != "" {
		cmd.Dir = workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger().Debug("running agent CLI", "cmd", argv[0], "args", len(argv)-1)

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", &TimeoutError{Deadline: r.Timeout}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ProcessError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return "", &CLINotFoundError{Path: argv[0], Cause: err}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Stream executes argv and yields normalized events as stdout lines arrive.
//
// Each line is handed to dec independently. After stdout closes the process
// is reaped; a non-zero exit surfaces one error event carrying trimmed stderr
// when stderr is non-empty. The returned channel always delivers exactly one
// terminal done event and is then closed.
//
// The deadline applies to each individual line read. On a read timeout, or
// when the caller's context is cancelled, the child process is killed before
// the stream is closed, so a stalled backend never outlives its turn.
func (r *Runner) Stream(ctx context.Context, argv []string, workDir string, dec LineDecoder) (<-chan agentstream.Event, error) {
	procCtx, kill := context.WithCancel(ctx)

	cmd := exec.CommandContext(procCtx, argv[0], argv[1:]...)
	if workDir != "" {
		cmd.Dir = workDir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		kill()
		return nil, err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		kill()
		return nil, &CLINotFoundError{Path: argv[0], Cause: err}
	}

	r.logger().Debug("streaming agent CLI", "cmd", argv[0], "args", len(argv)-1)

	events := make(chan agentstream.Event, 64)
	lines := readLines(stdout)

	go func() {
		defer close(events)
		defer kill()

		// emit blocks until the consumer takes the event, giving up only
		// when the caller's context is cancelled (consumer abandoned the
		// stream).
		emit := func(ev agentstream.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}

		timedOut := r.consumeLines(ctx, lines, dec, emit)
		if timedOut {
			// Kill the child so a stalled backend does not leak, then
			// drain stdout so the reader goroutine can exit.
			kill()
			for range lines {
			}
		}

		err := cmd.Wait()
		if !timedOut && err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				emit(agentstream.ErrorEvent{Message: msg})
			}
		}

		emit(agentstream.DoneEvent{})
	}()

	return events, nil
}

// consumeLines feeds stdout lines through the decoder until EOF, a per-read
// timeout, or context cancellation. Reports whether a timeout occurred.
func (r *Runner) consumeLines(ctx context.Context, lines <-chan string, dec LineDecoder, emit func(agentstream.Event)) bool {
	var deadline <-chan time.Time
	var timer *time.Timer
	if r.Timeout > 0 {
		timer = time.NewTimer(r.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return false
			}
			for _, ev := range dec.DecodeLine([]byte(line)) {
				emit(ev)
			}
			if timer != nil {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(r.Timeout)
			}
		case <-deadline:
			r.logger().Warn("stream read timed out", "deadline", r.Timeout)
			emit(agentstream.ErrorEvent{Message: "stream timeout"})
			return true
		case <-ctx.Done():
			return true
		}
	}
}

// readLines pumps non-empty trimmed lines from rd into the returned channel,
// closing it at EOF.
func readLines(rd io.Reader) <-chan string {
	out := make(chan string, 16)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(rd)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				out <- line
			}
		}
	}()
	return out
}
