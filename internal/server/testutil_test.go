package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"demoapps/internal/game"
	"demoapps/internal/game/calculator"
	"demoapps/internal/game/snake"
	"demoapps/internal/game/solitaire"
	"demoapps/internal/session"
	"demoapps/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts    *httptest.Server
	mgr   *session.Manager
	store *storage.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	reg := game.NewRegistry()
	reg.Register(solitaire.Solitaire{})
	reg.Register(snake.Snake{Scores: store, InitialSpeed: 5 * time.Millisecond})
	reg.Register(calculator.Game{})
	mgr := session.NewManager(reg, store, zap.NewNop())

	webFS := fstest.MapFS{
		"index.html":         &fstest.MapFile{Data: []byte("<html><body>test</body></html>")},
		"locales/en.json":    &fstest.MapFile{Data: []byte(`{"app":{"title":"Demo Apps"}}`)},
		"locales/es.json":    &fstest.MapFile{Data: []byte(`{"app":{"title":"Aplicaciones"}}`)},
		"locales/notes.txt":  &fstest.MapFile{Data: []byte("not a locale")},
		"locales/xx_YY.json": &fstest.MapFile{Data: []byte("{}")},
	}
	srv := New(reg, mgr, store, webFS, zap.NewNop())
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		mgr.Shutdown()
		store.Close()
	})

	return &testEnv{ts: ts, mgr: mgr, store: store}
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- REST API helpers ---

func createSessionViaAPI(t *testing.T, ts *httptest.Server, gameType, playerID string) string {
	t.Helper()
	body := fmt.Sprintf(`{"gameType":%q,"playerId":%q}`, gameType, playerID)
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var result createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result.Code
}

func startSessionViaAPI(t *testing.T, ts *httptest.Server, code string) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/sessions/"+code+"/start", "application/json", nil)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from start, got %d", resp.StatusCode)
	}
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server, code string) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/sessions/" + code + "/ws"
}

// wsConnect dials a WebSocket, sends a join message, and returns the connection.
// The caller is responsible for closing the connection.
func wsConnect(t *testing.T, ts *httptest.Server, code, playerID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(ts, code), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	if err := sendWS(ctx, conn, "join", joinPayload{PlayerID: playerID}); err != nil {
		t.Fatalf("send join: %v", err)
	}
	return conn
}

// sendWS marshals and sends a typed WebSocket message. Returns an error on failure.
func sendWS(ctx context.Context, conn *websocket.Conn, msgType string, payload any) error {
	p, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(WSMessage{Type: msgType, Payload: p})
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// readWS reads and unmarshals a single WebSocket message. Returns an error on failure.
func readWS(ctx context.Context, conn *websocket.Conn) (WSMessage, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return WSMessage{}, err
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return WSMessage{}, err
	}
	return msg, nil
}

// readState reads a WebSocket message and expects it to be a "state" message.
func readState(t *testing.T, ctx context.Context, conn *websocket.Conn) statePayload {
	t.Helper()
	msg, err := readWS(ctx, conn)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if msg.Type != "state" {
		t.Fatalf("expected state message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var sp statePayload
	if err := json.Unmarshal(msg.Payload, &sp); err != nil {
		t.Fatalf("unmarshal state payload: %v", err)
	}
	return sp
}

// readStateUntil reads state messages until done accepts one.
func readStateUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, done func(statePayload) bool) statePayload {
	t.Helper()
	for {
		sp := readState(t, ctx, conn)
		if done(sp) {
			return sp
		}
	}
}

// readError reads a WebSocket message and expects it to be an "error" message.
func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()
	msg, err := readWS(ctx, conn)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var ep errorPayload
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return ep.Message
}

// --- Game helpers ---

// makeAction wraps an action type and payload for the "action" message.
func makeAction(t *testing.T, actionType string, payload any) actionPayload {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal action payload: %v", err)
		}
	}
	return actionPayload{Action: game.Action{Type: actionType, Payload: raw}}
}

// stateMap extracts State from a statePayload as map[string]any, failing the test if
// the type assertion fails.
func stateMap(t *testing.T, sp statePayload) map[string]any {
	t.Helper()
	m, ok := sp.State.(map[string]any)
	if !ok {
		t.Fatalf("expected State to be map[string]any, got %T", sp.State)
	}
	return m
}
