// Package console is a line-oriented terminal front end for a session.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/harunnryd/orb/pkg/session"
	"github.com/harunnryd/orb/pkg/turn"
)

type Command int

const (
	CommandUnknown Command = iota
	CommandMic
	CommandVideo
	CommandReset
	CommandEnd
	CommandStatus
	CommandHelp
	CommandQuit
)

var commandNames = map[string]Command{
	"m":      CommandMic,
	"mic":    CommandMic,
	"v":      CommandVideo,
	"video":  CommandVideo,
	"r":      CommandReset,
	"reset":  CommandReset,
	"e":      CommandEnd,
	"end":    CommandEnd,
	"s":      CommandStatus,
	"status": CommandStatus,
	"h":      CommandHelp,
	"help":   CommandHelp,
	"?":      CommandHelp,
	"q":      CommandQuit,
	"quit":   CommandQuit,
	"exit":   CommandQuit,
}

// ParseCommand maps an input line to a command. Blank lines report false.
func ParseCommand(line string) (Command, bool) {
	line = strings.ToLower(strings.TrimSpace(line))
	if line == "" {
		return CommandUnknown, false
	}
	cmd, ok := commandNames[line]
	if !ok {
		return CommandUnknown, true
	}
	return cmd, true
}

const helpText = "m mic · v video · r reset · e end session · s status · q quit"

// Console renders session events and dispatches typed commands.
type Console struct {
	sess   *session.Session
	styles Styles

	mu     sync.Mutex
	out    io.Writer
	closed atomic.Bool
}

func New(sess *session.Session, out io.Writer) *Console {
	c := &Console{sess: sess, styles: DefaultStyles(), out: out}
	sess.AddListener(session.ListenerFunc(c.onEvent))
	return c
}

// Run reads commands from in until quit, EOF or ctx is done.
func Run(ctx context.Context, in io.Reader, out io.Writer, sess *session.Session) error {
	return New(sess, out).Run(ctx, in)
}

func (c *Console) Run(ctx context.Context, in io.Reader) error {
	defer c.closed.Store(true)

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	c.printf("%s\n", c.styles.Help.Render(helpText))
	c.printf("%s\n", c.styles.Status(c.sess.State(), c.sess.AudioLevel(), c.sess.VideoOn()))

	confirming := false
	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		case line = <-lines:
		}

		if confirming {
			confirming = false
			answer := strings.ToLower(strings.TrimSpace(line))
			if answer == "y" || answer == "yes" {
				c.sess.Reset()
				c.printf("session ended\n")
			} else {
				c.printf("end session cancelled\n")
			}
			continue
		}

		cmd, ok := ParseCommand(line)
		if !ok {
			continue
		}
		switch cmd {
		case CommandMic:
			c.sess.MicPress()
		case CommandVideo:
			c.sess.ToggleVideo()
		case CommandReset:
			c.sess.Reset()
		case CommandEnd:
			confirming = true
			c.printf("%s", c.styles.Prompt.Render("End session? [y/N] "))
		case CommandStatus:
			st := c.sess.State()
			c.printf("%s\n", c.styles.Status(st, c.sess.AudioLevel(), c.sess.VideoOn()))
			c.printf("%s\n", c.styles.Help.Render("m: "+micHint(st)))
		case CommandHelp:
			c.printf("%s\n", c.styles.Help.Render(helpText))
		case CommandQuit:
			return nil
		default:
			c.printf("unknown command %q (h for help)\n", strings.TrimSpace(line))
		}
	}
}

// micHint describes what a mic press does in st.
func micHint(st turn.State) string {
	switch {
	case turn.Applicable(st, turn.ActionInterrupt):
		return "interrupt"
	case !turn.Applicable(st, turn.ActionToggleMic):
		return "cancel the pending reply"
	case st == turn.StateListening:
		return "stop listening"
	default:
		return "start listening"
	}
}

func (c *Console) onEvent(ev session.Event) {
	if c.closed.Load() {
		return
	}
	switch ev.Type {
	case session.EventStateChanged:
		c.printf("%s  %s\n", c.styles.State(ev.Change.To), c.styles.Help.Render(ev.Change.Reason))
	case session.EventVideoToggled:
		if ev.VideoOn {
			c.printf("video on\n")
		} else {
			c.printf("video off\n")
		}
	}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}
