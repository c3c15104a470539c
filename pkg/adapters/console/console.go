// Package console runs the conversational engine as an interactive terminal chat.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/auticonnect/internal/logging"
	"github.com/aretw0/auticonnect/pkg/domain"
)

// DefaultUserID identifies the local console user.
const DefaultUserID = "console"

// exitCommands end the session without reaching the engine.
var exitCommands = map[string]bool{"/sair": true, "/quit": true, "/exit": true}

// Engine is the part of the conversational core the console needs.
type Engine interface {
	Handle(ctx context.Context, ev domain.Event) (domain.Reply, error)
}

// Renderer turns reply markdown into terminal output.
type Renderer func(string) (string, error)

// Console reads lines, turns them into events and prints the replies.
type Console struct {
	engine   Engine
	reader   *bufio.Reader
	writer   io.Writer
	renderer Renderer
	userID   string
	name     string
	logger   *slog.Logger

	// buttons of the last reply, addressable by their 1-based number.
	buttons []domain.Button
}

// Option configures the Console.
type Option func(*Console)

// WithRenderer sets the reply renderer.
func WithRenderer(r Renderer) Option {
	return func(c *Console) {
		c.renderer = r
	}
}

// WithUser sets the id and display name sent with every event.
func WithUser(id, name string) Option {
	return func(c *Console) {
		c.userID = id
		c.name = name
	}
}

// WithLogger configures a logger for engine failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		c.logger = logger
	}
}

// New creates a Console over r and w.
func New(engine Engine, r io.Reader, w io.Writer, opts ...Option) *Console {
	c := &Console{
		engine: engine,
		reader: bufio.NewReader(r),
		writer: w,
		userID: DefaultUserID,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type line struct {
	text string
	err  error
}

// Run loops until EOF, an exit command or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan line)
	go c.pump(ctx, lines)

	for {
		fmt.Fprint(c.writer, "> ")

		var in line
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.writer)
			return nil
		case in = <-lines:
		}
		if in.err != nil {
			if errors.Is(in.err, io.EOF) {
				fmt.Fprintln(c.writer)
				return nil
			}
			return in.err
		}

		text := strings.TrimSpace(in.text)
		if text == "" {
			continue
		}
		if exitCommands[strings.ToLower(text)] {
			return nil
		}

		reply, err := c.engine.Handle(ctx, c.Parse(text))
		if errors.Is(err, domain.ErrInternal) {
			c.logger.Error("Console event failed", "user_id", c.userID, "err", err)
		}
		c.print(reply)
	}
}

func (c *Console) pump(ctx context.Context, out chan<- line) {
	for {
		text, err := c.reader.ReadString('\n')
		if text != "" {
			select {
			case out <- line{text: text}:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			select {
			case out <- line{err: err}:
			case <-ctx.Done():
			}
			return
		}
	}
}

// Parse maps a typed line to an event. "/cmd args" is a command, "#token" or
// the number of a listed button is a choice, anything else is text.
func (c *Console) Parse(text string) domain.Event {
	var ev domain.Event
	fields := strings.Fields(strings.TrimPrefix(text, "/"))
	switch {
	case strings.HasPrefix(text, "/") && len(fields) > 0:
		ev = domain.Command(c.userID, fields[0], fields[1:]...)
	case strings.HasPrefix(text, "#") && len(text) > 1:
		ev = domain.Choice(c.userID, text[1:])
	default:
		ev = domain.Text(c.userID, text)
		if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(c.buttons) {
			ev = domain.Choice(c.userID, c.buttons[n-1].Token)
		}
	}
	ev.DisplayName = c.name
	return ev
}

func (c *Console) print(reply domain.Reply) {
	c.buttons = reply.Buttons

	out := reply.Text
	if c.renderer != nil && out != "" {
		if rendered, err := c.renderer(out); err == nil {
			out = rendered
		}
	}
	if out = strings.TrimSpace(out); out != "" {
		fmt.Fprintln(c.writer, out)
	}
	for i, b := range reply.Buttons {
		fmt.Fprintf(c.writer, "  %d. %s\n", i+1, b.Label)
	}
	if reply.Escalate {
		fmt.Fprintln(c.writer, "  (mensagem sinalizada para atenção humana)")
	}
}
