// core_engine/host/terminal.go
package host

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/term"

	"example.com/boardsim/core_engine/devices"
)

// TTYConsole implements devices.ConsolePort over the process's own
// stdin/stdout, put into raw mode for the duration of the emulator's run --
// the Go equivalent of the original's termios tcgetattr/tcsetattr dance
// and SIGINT/SIGQUIT/SIGPIPE handlers that restore it on exit.
type TTYConsole struct {
	savedState *term.State
	fd         int

	mu      sync.Mutex
	pending []byte

	sigc chan os.Signal
	Done chan struct{}
}

// NewTTYConsole puts stdin into raw mode and starts the signal handlers
// that guarantee the terminal is restored no matter how the process exits.
func NewTTYConsole() (*TTYConsole, error) {
	fd := int(os.Stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("host: failed to enter raw mode: %w", err)
	}
	c := &TTYConsole{
		savedState: state,
		fd:         fd,
		sigc:       make(chan os.Signal, 1),
		Done:       make(chan struct{}),
	}
	signal.Notify(c.sigc, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGPIPE)
	go c.watchSignals()
	go c.pump()
	return c, nil
}

func (c *TTYConsole) watchSignals() {
	<-c.sigc
	c.Restore()
	close(c.Done)
}

// pump is the only goroutine permitted to block on stdin; it exists
// purely to convert a blocking Read into the non-blocking ReadByte the
// rest of the emulator's single-threaded model requires.
func (c *TTYConsole) pump() {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n > 0 {
			c.mu.Lock()
			c.pending = append(c.pending, buf[0])
			c.mu.Unlock()
		}
		select {
		case <-c.Done:
			return
		default:
		}
	}
}

func (c *TTYConsole) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (c *TTYConsole) ReadByte() (byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return 0, false
	}
	b := c.pending[0]
	c.pending = c.pending[1:]
	return b, true
}

// Peek reports whether a byte is waiting without consuming it.
func (c *TTYConsole) Peek() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

// Restore puts the terminal back the way it was found. Safe to call more
// than once.
func (c *TTYConsole) Restore() {
	if c.savedState != nil {
		term.Restore(c.fd, c.savedState)
		c.savedState = nil
	}
}

var _ devices.ConsolePort = (*TTYConsole)(nil)
