package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/security/token"
)

type stubVerifier struct {
	id  Identity
	err error
}

func (s stubVerifier) VerifyAccess(raw string) (Identity, error) {
	if s.err != nil {
		return Identity{}, s.err
	}
	if raw == "" {
		return Identity{}, errors.New("missing token")
	}
	return s.id, nil
}

func newGatewayServer(t *testing.T, v AccessVerifier) *httptest.Server {
	t.Helper()
	g := NewGateway(nil, v, NewHub(), DefaultGatewayConfig())
	mux := http.NewServeMux()
	g.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + srv.URL[len("http"):] + path
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return conn
}

func readJSONFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) map[string]any {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestChartGateRejectsInvalidToken(t *testing.T) {
	srv := newGatewayServer(t, stubVerifier{err: errors.New("bad token")})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, wsURL(srv, "/charts/ws/line?token=garbage"))
	defer conn.CloseNow()

	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func TestChartGateRejectsMissingToken(t *testing.T) {
	srv := newGatewayServer(t, stubVerifier{id: Identity{UserID: 1, Username: "alice"}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, wsURL(srv, "/charts/ws/line"))
	defer conn.CloseNow()

	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func TestChartGateRejectsUnknownKind(t *testing.T) {
	srv := newGatewayServer(t, stubVerifier{id: Identity{UserID: 1, Username: "alice"}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, wsURL(srv, "/charts/ws/scatter?token=ok"))
	defer conn.CloseNow()

	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func TestChartStreamWithRealCodec(t *testing.T) {
	codec, err := token.NewCodec(token.DefaultConfig([]byte("test-secret")))
	require.NoError(t, err)
	srv := newGatewayServer(t, CodecVerifier{Codec: codec})

	access, _, err := codec.IssueAccess(7, "alice", time.Now())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, wsURL(srv, "/charts/ws/bar?token="+access))
	defer conn.CloseNow()

	frame := readJSONFrame(t, ctx, conn)
	bars, ok := frame["bars"].([]any)
	require.True(t, ok, "frame: %v", frame)
	require.Len(t, bars, 5)

	first, ok := bars[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Q1", first["label"])
	v, ok := first["value"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, v, 20.0)
	assert.LessOrEqual(t, v, 80.0)

	// A refresh token never passes the chart gate.
	refresh, _, err := codec.IssueRefresh(7, "alice", time.Now())
	require.NoError(t, err)

	conn2 := dial(t, ctx, wsURL(srv, "/charts/ws/bar?token="+refresh))
	defer conn2.CloseNow()
	_, _, err = conn2.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func TestChartIntervalUpdate(t *testing.T) {
	srv := newGatewayServer(t, stubVerifier{id: Identity{UserID: 1, Username: "alice"}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dial(t, ctx, wsURL(srv, "/charts/ws/pie?token=ok"))
	defer conn.CloseNow()

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"interval_ms": 500}`)))

	// Control acks interleave with data frames; scan a few frames for it.
	sawAck := false
	for i := 0; i < 10 && !sawAck; i++ {
		frame := readJSONFrame(t, ctx, conn)
		if frame["status"] == "interval_updated" {
			assert.Equal(t, float64(500), frame["interval_ms"])
			sawAck = true
		}
	}
	assert.True(t, sawAck, "no interval_updated ack seen")

	// An out-of-range interval is rejected with an error frame.
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"interval_ms": 100}`)))
	sawErr := false
	for i := 0; i < 10 && !sawErr; i++ {
		frame := readJSONFrame(t, ctx, conn)
		if msg, ok := frame["error"].(string); ok {
			assert.Contains(t, msg, "Invalid interval")
			sawErr = true
		}
	}
	assert.True(t, sawErr, "no error frame seen")
}

func TestChatEchoAndReply(t *testing.T) {
	srv := newGatewayServer(t, stubVerifier{id: Identity{UserID: 1, Username: "alice"}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dial(t, ctx, wsURL(srv, "/chat/ws?token=ok"))
	defer conn.CloseNow()

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"message": "hello there"}`)))

	echo := readJSONFrame(t, ctx, conn)
	assert.Equal(t, "user", echo["sender"])
	assert.Equal(t, "hello there", echo["message"])
	assert.Equal(t, true, echo["is_complete"])

	// First assistant frame carries the start of the reply; the transcript
	// grows monotonically word by word.
	partial := readJSONFrame(t, ctx, conn)
	assert.Equal(t, "assistant", partial["sender"])
	first, _ := partial["message"].(string)
	assert.Equal(t, "Excellent ", first)

	next := readJSONFrame(t, ctx, conn)
	nextMsg, _ := next["message"].(string)
	assert.Equal(t, "Excellent question ", nextMsg)
}

func TestChatRejectsBadMessages(t *testing.T) {
	srv := newGatewayServer(t, stubVerifier{id: Identity{UserID: 1, Username: "alice"}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, wsURL(srv, "/chat/ws?token=ok"))
	defer conn.CloseNow()

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`not json`)))
	frame := readJSONFrame(t, ctx, conn)
	assert.Equal(t, "Invalid JSON message", frame["error"])

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"other": 1}`)))
	frame = readJSONFrame(t, ctx, conn)
	assert.Equal(t, "Message field is required", frame["error"])

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"message": "   "}`)))
	frame = readJSONFrame(t, ctx, conn)
	assert.Equal(t, "Message cannot be empty", frame["error"])
}

func TestChatGateRejectsInvalidToken(t *testing.T) {
	srv := newGatewayServer(t, stubVerifier{err: errors.New("bad token")})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, wsURL(srv, "/chat/ws?token=garbage"))
	defer conn.CloseNow()

	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func TestChartTypesEndpoint(t *testing.T) {
	srv := newGatewayServer(t, stubVerifier{id: Identity{UserID: 1, Username: "alice"}})

	resp, err := srv.Client().Get(srv.URL + "/charts/types")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []any{"line", "pie", "bar"}, body["chart_types"])
	assert.Equal(t, float64(2000), body["default_interval_ms"])
}

func TestChatStatusEndpoint(t *testing.T) {
	srv := newGatewayServer(t, stubVerifier{id: Identity{UserID: 1, Username: "alice"}})

	resp, err := srv.Client().Get(srv.URL + "/chat/status")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "active", body["status"])
	assert.Equal(t, float64(0), body["active_connections"])
}
