package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/richard-senior/mcp/internal/logger"
)

// StdioTransport is a Transport over a pair of byte streams, newline
// delimited: one JSON message per line. It's used directly by a stdio
// server (wrapping os.Stdin/os.Stdout) and by a stdio client that owns a
// child process's pipes.
type StdioTransport struct {
	in  io.Reader
	out io.Writer

	// closer, if set, is called by Close/CloseGracefully once the
	// transport has stopped reading. For a spawned child process this
	// also waits for the process to exit.
	closer func() error

	sendMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

// NewStdioTransport wraps an arbitrary reader/writer pair, typically
// os.Stdin/os.Stdout for a server running as a child process itself.
func NewStdioTransport(in io.Reader, out io.Writer) *StdioTransport {
	return &StdioTransport{in: in, out: out}
}

// NewStdioClientTransport spawns command as a child process and returns a
// transport wired to its stdin/stdout. The child's stderr is forwarded to
// this process's stderr for diagnostics, per the convention most MCP
// stdio servers expect.
func NewStdioClientTransport(ctx context.Context, command string, args []string, env []string) (*StdioTransport, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdio transport: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdio transport: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("stdio transport: start %s: %w", command, err)
	}

	return &StdioTransport{
		in:  stdout,
		out: stdin,
		closer: func() error {
			stdin.Close()
			return cmd.Wait()
		},
	}, nil
}

// Connect starts a goroutine reading newline-delimited JSON from in and
// delivering each line to handler. The read loop never blocks the
// caller: Connect returns once the goroutine is launched.
func (t *StdioTransport) Connect(ctx context.Context, handler MessageHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})

	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(t.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			cp := make([]byte, len(line))
			copy(cp, line)
			select {
			case lines <- cp:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	go func() {
		defer close(t.done)
		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-lines:
				if !ok {
					if err := <-scanErr; err != nil {
						logger.Warn("stdio transport: read error", err)
					}
					return
				}
				handler(line)
			}
		}
	}()

	return nil
}

// Send writes msg followed by a newline. Writes are serialized: stdio is
// a single shared pipe and concurrent writers would interleave partial
// lines.
func (t *StdioTransport) Send(ctx context.Context, msg Message) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	if _, err := t.out.Write(msg); err != nil {
		return fmt.Errorf("stdio transport: write: %w", err)
	}
	if _, err := t.out.Write([]byte("\n")); err != nil {
		return fmt.Errorf("stdio transport: write newline: %w", err)
	}
	return nil
}

// CloseGracefully cancels the read loop and waits for it to drain before
// releasing the underlying process/pipes.
func (t *StdioTransport) CloseGracefully(ctx context.Context) error {
	if t.cancel != nil {
		t.cancel()
	}
	if t.done != nil {
		select {
		case <-t.done:
		case <-ctx.Done():
		}
	}
	return t.Close()
}

// Close releases the underlying pipes/process immediately.
func (t *StdioTransport) Close() error {
	if t.cancel != nil {
		t.cancel()
	}
	if t.closer != nil {
		return t.closer()
	}
	return nil
}
