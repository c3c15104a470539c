package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/auticonnect/internal/logging"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// EventResponse is the structured result of send_event.
type EventResponse struct {
	Reply domain.Reply `json:"reply" jsonschema_description:"The reply to render to the user"`
	Error string       `json:"error,omitempty" jsonschema_description:"Outcome class when the event was not accepted as-is"`
}

// GroupsResponse is the structured result of list_groups.
type GroupsResponse struct {
	Groups []domain.Group `json:"groups" jsonschema_description:"Every registered group"`
}

// Engine is the conversational core exposed as MCP tools.
type Engine interface {
	Handle(ctx context.Context, ev domain.Event) (domain.Reply, error)
	Groups(ctx context.Context) ([]domain.Group, error)
}

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for tool failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("auticonnect-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	eventTool := mcp.NewTool("send_event",
		mcp.WithDescription("Send one chat event on behalf of a user and get the bot reply."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Stable id of the sender")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("One of: command, text, choice")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Command name without slash, message body or button token")),
		mcp.WithString("args", mcp.Description("Space separated command arguments")),
		mcp.WithString("scope", mcp.Description("direct (default) or group")),
		mcp.WithString("chat_id", mcp.Description("Group chat id when scope is group")),
		mcp.WithOutputSchema[EventResponse](),
	)
	s.mcpServer.AddTool(eventTool, mcp.NewStructuredToolHandler(s.handleSendEvent))

	groupsTool := mcp.NewTool("list_groups",
		mcp.WithDescription("List every support group with its members and capacity."),
		mcp.WithOutputSchema[GroupsResponse](),
	)
	s.mcpServer.AddTool(groupsTool, mcp.NewStructuredToolHandler(s.handleListGroups))
}

var errBadEvent = errors.New("user_id, kind and value are required")

func (s *Server) handleSendEvent(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EventResponse, error) {
	str := func(key string) string {
		v, _ := args[key].(string)
		return strings.TrimSpace(v)
	}

	ev := domain.Event{
		UserID: str("user_id"),
		Kind:   domain.EventKind(str("kind")),
		Value:  str("value"),
		Args:   strings.Fields(str("args")),
		Scope:  domain.Scope(str("scope")),
		ChatID: str("chat_id"),
	}
	switch ev.Kind {
	case domain.EventCommand, domain.EventText, domain.EventChoice:
	default:
		return EventResponse{}, fmt.Errorf("%w: unknown kind %q", errBadEvent, ev.Kind)
	}
	if ev.UserID == "" || ev.Value == "" {
		return EventResponse{}, errBadEvent
	}

	reply, err := s.engine.Handle(ctx, ev)
	resp := EventResponse{Reply: reply}
	if err != nil {
		resp.Error = err.Error()
		if errors.Is(err, domain.ErrInternal) {
			s.logger.Error("MCP SendEvent: Handling failed", "user_id", ev.UserID, "err", err)
		}
	}
	return resp, nil
}

func (s *Server) handleListGroups(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GroupsResponse, error) {
	groups, err := s.engine.Groups(ctx)
	if err != nil {
		return GroupsResponse{}, fmt.Errorf("list groups failed: %w", err)
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	return GroupsResponse{Groups: groups}, nil
}
