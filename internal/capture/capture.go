// Package capture frames the evaluation report inside an engine's line
// stream: it decides where the report starts and ends, buffers the block,
// and hands the sealed text to the table decoder.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/fairy-eval-harness/internal/evaltable"
)

// DefaultStartMarkers are the line prefixes engines print right before the
// evaluation breakdown.
var DefaultStartMarkers = []string{
	"info string variant",
	"info string classical evaluation",
}

// DefaultTerminatorPrefix starts the summary line closing the report.
const DefaultTerminatorPrefix = "Final"

// Config controls report framing and decoding for one engine format.
type Config struct {
	StartMarkers     []string
	TerminatorPrefix string
	Decode           evaltable.Config
}

func (c Config) withDefaults() Config {
	if len(c.StartMarkers) == 0 {
		c.StartMarkers = DefaultStartMarkers
	}
	if c.TerminatorPrefix == "" {
		c.TerminatorPrefix = DefaultTerminatorPrefix
	}
	return c
}

// LineWriter is the outbound half of the engine transport.
type LineWriter interface {
	WriteLine(ctx context.Context, line string) error
}

// Report is the outcome of one captured command: the verbatim block kept as
// an audit trail plus its decoded form.
type Report struct {
	Raw   string
	Table *evaltable.Table
}

// ErrIncomplete reports a stream that ended or was canceled before the
// terminator line arrived.
var ErrIncomplete = errors.New("report capture incomplete")

type phase int

const (
	phaseNotStarted phase = iota
	phaseCapturing
	phaseFinished
)

type outcome struct {
	report *Report
	err    error
}

// Capture drives one command/report exchange. The transport must deliver
// lines via OnLine in arrival order from a single goroutine; Wait may be
// called from anywhere.
type Capture struct {
	cfg Config
	log *zap.Logger

	phase    phase
	closing  bool
	buf      []string
	resolved bool
	done     chan outcome
}

func New(cfg Config, log *zap.Logger) *Capture {
	if log == nil {
		log = zap.NewNop()
	}
	return &Capture{
		cfg:  cfg.withDefaults(),
		log:  log,
		done: make(chan outcome, 1),
	}
}

// Start sends the command that makes the engine print its report.
func (c *Capture) Start(ctx context.Context, command string, w LineWriter) error {
	if w == nil {
		return fmt.Errorf("nil line writer")
	}
	if err := w.WriteLine(ctx, command); err != nil {
		return fmt.Errorf("send %q: %w", command, err)
	}
	return nil
}

// OnLine consumes one inbound line. Finalization runs one line after the
// terminator so the terminator itself lands in the buffer before the block
// is sealed.
func (c *Capture) OnLine(line string) {
	switch {
	case c.phase == phaseFinished:
	case c.closing:
		c.finish()
	case line == "":
		// Blank separator lines carry no state.
	case c.phase == phaseNotStarted && c.matchesStart(line):
		c.phase = phaseCapturing
	case c.phase == phaseCapturing:
		c.buf = append(c.buf, line)
		if strings.HasPrefix(line, c.cfg.TerminatorPrefix) {
			c.closing = true
		}
	default:
		// Unsolicited engine chatter never aborts the command.
		c.log.Warn("unexpected engine output", zap.String("line", line))
	}
}

// CloseStream tells the capture the transport delivered its last line. A
// report whose terminator was already seen is sealed; anything earlier
// resolves as incomplete.
func (c *Capture) CloseStream() {
	if c.phase == phaseFinished {
		return
	}
	if c.closing {
		c.finish()
		return
	}
	started := c.phase == phaseCapturing
	c.phase = phaseFinished
	c.resolve(nil, fmt.Errorf("%w: stream closed (started=%t, buffered=%d)", ErrIncomplete, started, len(c.buf)))
}

// Done reports whether the capture has resolved, letting a pull-based
// transport stop reading.
func (c *Capture) Done() bool {
	return c.phase == phaseFinished
}

// Wait blocks until the capture resolves or ctx ends. Cancellation counts
// as an incomplete capture, never as a partial table.
func (c *Capture) Wait(ctx context.Context) (*Report, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrIncomplete, ctx.Err())
	case out := <-c.done:
		return out.report, out.err
	}
}

func (c *Capture) matchesStart(line string) bool {
	for _, marker := range c.cfg.StartMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}

func (c *Capture) finish() {
	c.phase = phaseFinished
	raw := strings.Join(c.buf, "\n") + "\n"
	table, err := evaltable.Decode(raw, c.cfg.Decode)
	if err != nil {
		c.resolve(nil, err)
		return
	}
	c.resolve(&Report{Raw: raw, Table: table}, nil)
}

func (c *Capture) resolve(report *Report, err error) {
	if c.resolved {
		return
	}
	c.resolved = true
	c.done <- outcome{report: report, err: err}
}
