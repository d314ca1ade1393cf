// Package uci runs an engine binary as a subprocess and speaks the
// line-oriented UCI protocol over its stdio pipes.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/park285/fairy-eval-harness/internal/capture"
)

const (
	defaultReadyTimeout  = 4 * time.Second
	newGameRetryAttempts = 3
	newGameRetryDelay    = 150 * time.Millisecond
)

// Options are applied during the handshake via setoption. Variant and
// VariantPath register custom variants the way Fairy-Stockfish expects.
type Options struct {
	Threads     int
	HashMB      int
	MultiPV     int
	Variant     string
	VariantPath string
}

type Session struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stdout   *bufio.Reader
	mu       sync.Mutex
	exchange sync.Mutex
}

func NewSession(ctx context.Context, binaryPath string, opt Options) (*Session, error) {
	if err := validateOptions(opt); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdoutPipe.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	s := &Session{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdoutPipe),
	}

	if err := s.initialize(ctx, opt); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func validateOptions(opt Options) error {
	if opt.Threads < 0 {
		return fmt.Errorf("thread count must be >= 0: %d", opt.Threads)
	}
	if opt.HashMB < 0 {
		return fmt.Errorf("hash size must be >= 0: %d", opt.HashMB)
	}
	if opt.Variant != "" && opt.VariantPath == "" && strings.Contains(opt.Variant, ":") {
		return fmt.Errorf("variant %q needs a variants file", opt.Variant)
	}
	return nil
}

// Position loads a position before a report exchange.
func (s *Session) Position(fen string, moves []string) error {
	if err := s.send(buildPositionCommand(fen, moves)); err != nil {
		return fmt.Errorf("send position: %w", err)
	}
	return nil
}

// WriteLine implements capture.LineWriter.
func (s *Session) WriteLine(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.send(line + "\n")
}

// CaptureReport sends command and pumps inbound lines into cap until the
// report resolves. An isready follows the command so the engine's readyok
// provides the delivery that seals the captured block.
func (s *Session) CaptureReport(ctx context.Context, cap *capture.Capture, command string) (*capture.Report, error) {
	s.exchange.Lock()
	defer s.exchange.Unlock()

	if err := cap.Start(ctx, command, s); err != nil {
		return nil, err
	}
	if err := s.send("isready\n"); err != nil {
		return nil, fmt.Errorf("send isready: %w", err)
	}

	for !cap.Done() {
		line, err := s.readLine(ctx)
		if err != nil {
			cap.CloseStream()
			break
		}
		cap.OnLine(line)
	}
	return cap.Wait(ctx)
}

func buildPositionCommand(fen string, moves []string) string {
	var sb strings.Builder
	if strings.TrimSpace(fen) == "" || fen == "startpos" {
		sb.WriteString("position startpos")
	} else {
		sb.WriteString("position fen ")
		sb.WriteString(fen)
	}
	if len(moves) > 0 {
		sb.WriteString(" moves ")
		sb.WriteString(strings.Join(moves, " "))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (s *Session) EnsureReady(ctx context.Context) error {
	readyCtx, cancel := context.WithTimeout(ctx, defaultReadyTimeout)
	defer cancel()

	if err := s.send("isready\n"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := s.awaitToken(readyCtx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

func (s *Session) NewGame(ctx context.Context) error {
	if err := s.send("ucinewgame\n"); err != nil {
		return fmt.Errorf("send ucinewgame: %w", err)
	}

	for attempt := 1; attempt <= newGameRetryAttempts; attempt++ {
		err := s.EnsureReady(ctx)
		if err == nil {
			return nil
		}
		if attempt == newGameRetryAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(newGameRetryDelay):
		}
	}
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdin != nil {
		s.stdin.Close()
	}

	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}

	if s.cmd != nil {
		return s.cmd.Wait()
	}
	return nil
}

func (s *Session) initialize(ctx context.Context, opt Options) error {
	initCtx, cancel := context.WithTimeout(ctx, defaultReadyTimeout)
	defer cancel()

	if err := s.send("uci\n"); err != nil {
		return fmt.Errorf("send uci: %w", err)
	}
	if err := s.awaitToken(initCtx, "uciok"); err != nil {
		return fmt.Errorf("wait uciok: %w", err)
	}

	for _, cmd := range optionCommands(opt) {
		if err := s.send(cmd); err != nil {
			return fmt.Errorf("apply options: %w", err)
		}
	}

	if err := s.send("isready\n"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := s.awaitToken(initCtx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

// optionCommands renders the setoption lines for the handshake. VariantPath
// must load before UCI_Variant so custom variant names resolve.
func optionCommands(opt Options) []string {
	threadCount := opt.Threads
	if threadCount <= 0 {
		threadCount = 1
	}
	hashMB := opt.HashMB
	if hashMB <= 0 {
		hashMB = 16
	}
	cmds := []string{
		fmt.Sprintf("setoption name Threads value %d\n", threadCount),
		fmt.Sprintf("setoption name Hash value %d\n", hashMB),
	}
	if opt.MultiPV > 0 {
		cmds = append(cmds, fmt.Sprintf("setoption name MultiPV value %d\n", opt.MultiPV))
	}
	if opt.VariantPath != "" {
		cmds = append(cmds, fmt.Sprintf("setoption name VariantPath value %s\n", opt.VariantPath))
	}
	if opt.Variant != "" {
		cmds = append(cmds, fmt.Sprintf("setoption name UCI_Variant value %s\n", opt.Variant))
	}
	return cmds
}

func (s *Session) send(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.stdin, msg)
	return err
}

func (s *Session) awaitToken(ctx context.Context, token string) error {
	for {
		line, err := s.readLine(ctx)
		if err != nil {
			return err
		}
		if strings.Contains(line, token) {
			return nil
		}
	}
}

func (s *Session) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		line, err := s.stdout.ReadString('\n')
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.line, res.err
	}
}

func optionsKey(binaryPath string, opt Options) string {
	return strings.Join([]string{
		binaryPath,
		"thr=" + strconv.Itoa(opt.Threads),
		"hash=" + strconv.Itoa(opt.HashMB),
		"multipv=" + strconv.Itoa(opt.MultiPV),
		"variant=" + opt.Variant,
		"vpath=" + opt.VariantPath,
	}, "|")
}
