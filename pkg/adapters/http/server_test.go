package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/auticonnect"
	"github.com/aretw0/auticonnect/pkg/adapters/memory"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/aretw0/auticonnect/pkg/observability"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *auticonnect.Engine) {
	t.Helper()
	eng, err := auticonnect.New(memory.NewRepository(), memory.NewSessionStore())
	require.NoError(t, err)
	srv := httptest.NewServer(NewHandler(eng, opts...))
	t.Cleanup(srv.Close)
	return srv, eng
}

func postEvent(t *testing.T, srv *httptest.Server, ev domain.Event) EventResponse {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/v1/events", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out EventResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestPostEvent_Registration(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postEvent(t, srv, domain.Command("f", "start"))
	assert.Empty(t, resp.Error)
	assert.Contains(t, resp.Reply.Text, "me diga seu nome")

	resp = postEvent(t, srv, domain.Text("f", "Fábio"))
	require.Len(t, resp.Reply.Buttons, 2)
	assert.Equal(t, string(domain.RoleFacilitator), resp.Reply.Buttons[1].Token)

	resp = postEvent(t, srv, domain.Choice("f", string(domain.RoleFacilitator)))
	assert.Empty(t, resp.Error)
	assert.Contains(t, resp.Reply.Text, "Registro concluído")
}

func TestPostEvent_DomainErrorStillReplies(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postEvent(t, srv, domain.Command("ana", "criar_grupo"))
	assert.NotEmpty(t, resp.Error)
	assert.NotEmpty(t, resp.Reply.Text)
}

func TestPostEvent_BadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := map[string]string{
		"malformed":    `{"user_id":`,
		"missing user": `{"kind":"text","value":"oi"}`,
		"unknown kind": `{"user_id":"u","kind":"voice","value":"oi"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/events", "application/json", strings.NewReader(body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestListGroups(t *testing.T) {
	srv, eng := newTestServer(t)
	ctx := context.Background()

	resp, err := http.Get(srv.URL + "/v1/groups")
	require.NoError(t, err)
	var empty []domain.Group
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&empty))
	resp.Body.Close()
	assert.Empty(t, empty)

	for _, ev := range []domain.Event{
		domain.Command("f", "start"),
		domain.Text("f", "Fábio"),
		domain.Choice("f", string(domain.RoleFacilitator)),
		domain.Command("f", "criar_grupo"),
		domain.Text("f", "Leitores"),
		domain.Text("f", "Livros"),
		domain.Text("f", "Clube do livro"),
		domain.Text("f", "10"),
	} {
		_, err := eng.Handle(ctx, ev)
		require.NoError(t, err)
	}

	resp, err = http.Get(srv.URL + "/v1/groups")
	require.NoError(t, err)
	defer resp.Body.Close()
	var groups []domain.Group
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "Leitores", groups[0].Name)
	assert.Equal(t, []string{"f"}, groups[0].Members)
}

type failingEngine struct{}

func (failingEngine) Handle(context.Context, domain.Event) (domain.Reply, error) {
	return domain.Reply{}, nil
}

func (failingEngine) Groups(context.Context) ([]domain.Group, error) {
	return nil, errors.New("store down")
}

func TestListGroups_Failure(t *testing.T) {
	srv := httptest.NewServer(NewHandler(failingEngine{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/groups")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := observability.NewMetrics()
	srv, _ := newTestServer(t, WithVersion(auticonnect.Version), WithMetrics(metrics.Handler()))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, auticonnect.Version, health.Version)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetricsNotMountedByDefault(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestWebSocket_OneReplyPerFrame(t *testing.T) {
	srv, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	send := func(ev domain.Event) EventResponse {
		t.Helper()
		require.NoError(t, conn.WriteJSON(ev))
		var resp EventResponse
		require.NoError(t, conn.ReadJSON(&resp))
		return resp
	}

	resp := send(domain.Command("ana", "start"))
	assert.Contains(t, resp.Reply.Text, "me diga seu nome")

	resp = send(domain.Text("ana", "Ana"))
	assert.Contains(t, resp.Reply.Text, "Obrigado, Ana!")

	resp = send(domain.Event{Kind: domain.EventText, Value: "sem usuário"})
	assert.Equal(t, errBadEvent.Error(), resp.Error)

	// The connection survives a rejected frame.
	resp = send(domain.Choice("ana", string(domain.RoleParticipant)))
	assert.Empty(t, resp.Error)
	assert.Contains(t, resp.Reply.Text, "Registro básico concluído!")
}
