package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rakshit0960/PeerTalk/auth"
	"github.com/rakshit0960/PeerTalk/domain"
	"github.com/rakshit0960/PeerTalk/domain/event"
	"github.com/rakshit0960/PeerTalk/mocks"
	"github.com/rakshit0960/PeerTalk/observability"
	"github.com/rakshit0960/PeerTalk/runtime"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.Default()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	registry := runtime.NewRegistry()
	router := runtime.NewRouter(logger, registry, metrics)

	// The store collaborator is not exercised by these tests
	store := mocks.NewMockMessageStore(gomock.NewController(t))
	coordinator := runtime.NewCoordinator(router, store)
	runtime.NewCallRelay(router)

	server := NewServer(logger, auth.NewVerifier(testSecret), registry, router, coordinator, metrics, Config{
		BufferSize: 16,
		WriteWait:  time.Second,
		PongWait:   10 * time.Second,
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", server)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mintToken(t *testing.T, userID domain.UserID) string {
	t.Helper()
	token, err := auth.NewVerifier(testSecret).Generate(
		userID, "Test User", "user@example.com", time.Hour)
	require.NoError(t, err)
	return token
}

func sendFrame(t *testing.T, conn *websocket.Conn, name string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	frame, err := json.Marshal(event.Envelope{Event: name, Data: data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func readFrame(t *testing.T, conn *websocket.Conn) event.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var env event.Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestServer_RefusesMissingCredential(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_RefusesInvalidToken(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	header := http.Header{}
	header.Set("Authorization", "Bearer garbage")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_AdmitsTokenQueryParameter(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(
		wsURL(ts)+"?token="+mintToken(t, 7), nil)
	req.NoError(err)
	req.Equal(http.StatusSwitchingProtocols, resp.StatusCode)
	_ = conn.Close()
}

func TestServer_DeliversMessageToReceiver(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	receiver := dial(t, ts, mintToken(t, 7))
	sender := dial(t, ts, mintToken(t, 9))

	// Give the server a moment to finish both admissions
	time.Sleep(100 * time.Millisecond)

	payload := event.MessagePayload{
		ID: 1, Content: "hi", SenderID: 9, ReceiverID: 7, ConversationID: 42,
	}
	sendFrame(t, sender, event.NewMessage, payload)

	env := readFrame(t, receiver)
	req.Equal(event.GetNewMessage, env.Event)

	var delivered event.MessagePayload
	req.NoError(json.Unmarshal(env.Data, &delivered))
	req.Equal(payload, delivered)
}

func TestServer_MalformedPayloadGetsScopedError(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	sender := dial(t, ts, mintToken(t, 9))
	time.Sleep(100 * time.Millisecond)

	sendFrame(t, sender, event.NewMessage, map[string]any{
		"id": 1, "senderId": 9, "receiverId": 7, "conversationId": 42,
	})

	env := readFrame(t, sender)
	req.Equal(event.Error, env.Event)

	// The connection stays usable afterwards
	sendFrame(t, sender, event.JoinConversation, event.JoinConversationPayload{ID: 42})
	sendFrame(t, sender, event.NewMessage, map[string]any{"still": "broken"})
	env = readFrame(t, sender)
	req.Equal(event.Error, env.Event)
}
