package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/auticonnect"
	"github.com/aretw0/auticonnect/pkg/adapters/memory"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := auticonnect.New(memory.NewRepository(), memory.NewSessionStore())
	require.NoError(t, err)
	return NewServer(eng, auticonnect.Version)
}

func send(t *testing.T, s *Server, args map[string]interface{}) EventResponse {
	t.Helper()
	resp, err := s.handleSendEvent(context.Background(), mcp.CallToolRequest{}, args)
	require.NoError(t, err)
	return resp
}

func TestSendEvent_CreateGroup(t *testing.T) {
	s := newTestServer(t)

	steps := []map[string]interface{}{
		{"user_id": "f", "kind": "command", "value": "start"},
		{"user_id": "f", "kind": "text", "value": "Fábio"},
		{"user_id": "f", "kind": "choice", "value": "facilitator"},
		{"user_id": "f", "kind": "command", "value": "criar_grupo"},
		{"user_id": "f", "kind": "text", "value": "Artes"},
		{"user_id": "f", "kind": "text", "value": "Pintura"},
		{"user_id": "f", "kind": "text", "value": "Encontros semanais"},
	}
	for _, args := range steps {
		resp := send(t, s, args)
		require.Empty(t, resp.Error, "args %v", args)
	}
	resp := send(t, s, map[string]interface{}{"user_id": "f", "kind": "text", "value": "8"})
	assert.Contains(t, resp.Reply.Text, "Grupo 'Artes' criado com sucesso!")

	groups, err := s.handleListGroups(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	require.Len(t, groups.Groups, 1)
	assert.Equal(t, 8, groups.Groups[0].MaxMembers)
}

func TestSendEvent_JoinWithArgs(t *testing.T) {
	s := newTestServer(t)

	resp := send(t, s, map[string]interface{}{"user_id": "ana", "kind": "command", "value": "entrar", "args": "nope"})
	assert.NotEmpty(t, resp.Error)
	assert.NotEmpty(t, resp.Reply.Text)
}

func TestSendEvent_RejectsMalformed(t *testing.T) {
	s := newTestServer(t)

	cases := []map[string]interface{}{
		{"kind": "text", "value": "oi"},
		{"user_id": "u", "kind": "voice", "value": "oi"},
		{"user_id": "u", "kind": "text"},
	}
	for _, args := range cases {
		_, err := s.handleSendEvent(context.Background(), mcp.CallToolRequest{}, args)
		assert.ErrorIs(t, err, errBadEvent, "args %v", args)
	}
}

func TestListGroups_Empty(t *testing.T) {
	s := newTestServer(t)

	groups, err := s.handleListGroups(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
	require.NoError(t, err)
	assert.NotNil(t, groups.Groups)
	assert.Empty(t, groups.Groups)
}

func TestSendEvent_Reply(t *testing.T) {
	s := newTestServer(t)

	resp := send(t, s, map[string]interface{}{"user_id": "u", "kind": string(domain.EventCommand), "value": "start"})
	assert.Empty(t, resp.Error)
	assert.Contains(t, resp.Reply.Text, "Bem-vindo ao AutiConnect")
}
