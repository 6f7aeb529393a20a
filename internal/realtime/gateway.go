package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const (
	defaultIntervalMS = 2000
	minIntervalMS     = 500
	maxIntervalMS     = 60000

	wsDefaultSendQueue    = 64
	wsDefaultWriteTimeout = 5 * time.Second
	wsMaxFrameBytes       = 32 << 10

	channelChat = "chat"
)

// Config holds the gateway knobs.
type Config struct {
	// WriteTimeout bounds every single frame write.
	WriteTimeout time.Duration

	// SendQueue is the per-connection outbound buffer.
	SendQueue int

	// OriginPatterns authorizes cross-origin browser clients; same-host is
	// always allowed by the transport.
	OriginPatterns []string

	// DevInsecure disables origin verification entirely. Dev only.
	DevInsecure bool
}

// DefaultGatewayConfig returns the stock gateway settings.
func DefaultGatewayConfig() Config {
	return Config{
		WriteTimeout: wsDefaultWriteTimeout,
		SendQueue:    wsDefaultSendQueue,
	}
}

// Gateway is the WebSocket entrypoint for chart and chat streams.
type Gateway struct {
	log      *slog.Logger
	verifier AccessVerifier
	hub      *Hub
	cfg      Config
}

// NewGateway constructs a Gateway.
func NewGateway(log *slog.Logger, verifier AccessVerifier, hub *Hub, cfg Config) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	if hub == nil {
		hub = NewHub()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = wsDefaultWriteTimeout
	}
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = wsDefaultSendQueue
	}
	return &Gateway{log: log, verifier: verifier, hub: hub, cfg: cfg}
}

// Register wires the realtime routes onto the provided mux.
func (g *Gateway) Register(mux *http.ServeMux) {
	if g == nil || mux == nil {
		return
	}
	mux.HandleFunc("/charts/ws/{chart_type}", g.HandleChartWS)
	mux.HandleFunc("GET /charts/types", g.HandleChartTypes)
	mux.HandleFunc("/chat/ws", g.HandleChatWS)
	mux.HandleFunc("GET /chat/status", g.HandleChatStatus)
}

// accept upgrades the request and then runs the auth gate: the handshake is
// completed first so a failing client gets a 1008 close frame instead of an
// opaque HTTP error. Returns a nil conn when the caller should bail out.
func (g *Gateway) accept(w http.ResponseWriter, r *http.Request, channel string) (*websocket.Conn, Identity, bool) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     g.cfg.OriginPatterns,
		InsecureSkipVerify: g.cfg.DevInsecure,
	})
	if err != nil {
		g.log.Info("ws.accept.fail", "channel", channel, "err", err)
		return nil, Identity{}, false
	}
	conn.SetReadLimit(wsMaxFrameBytes)

	raw := strings.TrimSpace(r.URL.Query().Get("token"))
	id, err := g.verifier.VerifyAccess(raw)
	if err != nil {
		wsAuthFailures.WithLabelValues(channel).Inc()
		g.log.Info("ws.auth.fail", "channel", channel, "remote", r.RemoteAddr)
		_ = conn.Close(websocket.StatusPolicyViolation, "authentication failed")
		return nil, Identity{}, false
	}

	return conn, id, true
}

// HandleChartWS streams generated chart frames for the kind named in the
// path. The client may adjust the push interval at any time by sending
// {"interval_ms": N} with N in [500, 60000].
func (g *Gateway) HandleChartWS(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("chart_type")
	if !ValidChartKind(kind) {
		// Unknown kinds get the handshake and an immediate 1008, same as a
		// failed token check.
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns:     g.cfg.OriginPatterns,
			InsecureSkipVerify: g.cfg.DevInsecure,
		})
		if err != nil {
			return
		}
		_ = conn.Close(websocket.StatusPolicyViolation, "unknown chart type")
		return
	}

	conn, id, ok := g.accept(w, r, kind)
	if !ok {
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	client := newWSConn(id, g.cfg.SendQueue, defaultIntervalMS)
	g.hub.Add(kind, client.ID, id)
	defer g.hub.Remove(kind, client.ID)

	g.log.Info("ws.chart.open", "chart", kind, "conn_id", client.ID, "user_id", id.UserID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	shutdown := func(code websocket.StatusCode, reason string) {
		client.Close()
		_ = conn.Close(code, reason)
		cancel()
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case frame := <-client.Send:
				if err := g.writeFrame(ctx, conn, frame); err != nil {
					shutdown(websocket.StatusAbnormalClosure, "write failed")
					return
				}
				wsFramesSent.WithLabelValues(kind).Inc()
			}
		}
	}()

	senderDone := make(chan struct{})
	go func() {
		defer close(senderDone)
		g.runChartSender(ctx, client, ChartKind(kind))
	}()

	// Read loop: the only client-to-server message is an interval update.
	for {
		data, err := readText(ctx, conn)
		if err != nil {
			break
		}

		var msg struct {
			IntervalMS *int `json:"interval_ms"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			g.enqueueJSON(ctx, client, map[string]string{"error": "Invalid JSON message"})
			continue
		}
		if msg.IntervalMS == nil {
			continue
		}

		ms := *msg.IntervalMS
		if ms < minIntervalMS || ms > maxIntervalMS {
			g.enqueueJSON(ctx, client, map[string]string{
				"error": "Invalid interval. Must be between 500ms and 60000ms",
			})
			continue
		}

		client.SetInterval(ms)
		g.enqueueJSON(ctx, client, map[string]any{
			"status":      "interval_updated",
			"interval_ms": ms,
		})
	}

	shutdown(websocket.StatusNormalClosure, "bye")
	<-writerDone
	<-senderDone
	g.log.Info("ws.chart.close", "chart", kind, "conn_id", client.ID)
}

// runChartSender pushes one frame immediately and then one per interval
// until the connection shuts down.
func (g *Gateway) runChartSender(ctx context.Context, client *wsConn, kind ChartKind) {
	series := newLineSeries(time.Now().UTC())

	for {
		now := time.Now().UTC()
		var frame any
		switch kind {
		case ChartLine:
			frame = series.Next(now, client.Interval())
		case ChartPie:
			frame = newPieChartData(now)
		case ChartBar:
			frame = newBarChartData(now)
		}
		g.enqueueJSON(ctx, client, frame)

		t := time.NewTimer(time.Duration(client.Interval()) * time.Millisecond)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-client.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// HandleChatWS echoes each user message and streams back a simulated
// assistant reply word by word.
func (g *Gateway) HandleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, id, ok := g.accept(w, r, channelChat)
	if !ok {
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	client := newWSConn(id, g.cfg.SendQueue, defaultIntervalMS)
	g.hub.Add(channelChat, client.ID, id)
	defer g.hub.Remove(channelChat, client.ID)

	g.log.Info("ws.chat.open", "conn_id", client.ID, "user_id", id.UserID, "username", id.Username)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	shutdown := func(code websocket.StatusCode, reason string) {
		client.Close()
		_ = conn.Close(code, reason)
		cancel()
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case frame := <-client.Send:
				if err := g.writeFrame(ctx, conn, frame); err != nil {
					shutdown(websocket.StatusAbnormalClosure, "write failed")
					return
				}
				wsFramesSent.WithLabelValues(channelChat).Inc()
			}
		}
	}()

	for {
		data, err := readText(ctx, conn)
		if err != nil {
			break
		}

		var msg struct {
			Message *string `json:"message"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			g.enqueueJSON(ctx, client, map[string]string{"error": "Invalid JSON message"})
			continue
		}
		if msg.Message == nil {
			g.enqueueJSON(ctx, client, map[string]string{"error": "Message field is required"})
			continue
		}

		text := strings.TrimSpace(*msg.Message)
		if text == "" {
			g.enqueueJSON(ctx, client, map[string]string{"error": "Message cannot be empty"})
			continue
		}

		// Echo the user's message before the reply stream starts.
		g.enqueueJSON(ctx, client, chatMessage{
			Message:    text,
			Sender:     "user",
			Timestamp:  time.Now().UTC(),
			IsComplete: true,
		})

		reply := generateReply(id.Username, text)
		g.streamReply(ctx, client, reply)
	}

	shutdown(websocket.StatusNormalClosure, "bye")
	<-writerDone
	g.log.Info("ws.chat.close", "conn_id", client.ID)
}

// streamReply sends the reply with a typing effect: each frame carries the
// transcript so far, only the last is marked complete.
func (g *Gateway) streamReply(ctx context.Context, client *wsConn, reply string) {
	words := strings.Fields(reply)
	var b strings.Builder

	for i, word := range words {
		b.WriteString(word)
		last := i == len(words)-1
		if !last {
			b.WriteString(" ")
		}

		g.enqueueJSON(ctx, client, chatMessage{
			Message:    b.String(),
			Sender:     "assistant",
			Timestamp:  time.Now().UTC(),
			IsComplete: last,
		})

		if last {
			return
		}
		t := time.NewTimer(typingDelay())
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-client.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// HandleChartTypes describes the chart streaming surface.
func (g *Gateway) HandleChartTypes(w http.ResponseWriter, _ *http.Request) {
	kinds := make([]string, 0, len(ChartKinds))
	for _, k := range ChartKinds {
		kinds = append(kinds, string(k))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chart_types":         kinds,
		"websocket_endpoint":  "/charts/ws/{chart_type}",
		"authentication":      "JWT token required via query parameter 'token'",
		"default_interval_ms": defaultIntervalMS,
		"interval_range":      "500ms - 60000ms",
	})
}

// HandleChatStatus reports chat liveness and the reply contract.
func (g *Gateway) HandleChatStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "active",
		"active_connections":  g.hub.Count(channelChat),
		"websocket_endpoint":  "/chat/ws",
		"authentication":      "JWT token required via query parameter 'token'",
		"response_format":     "excellent question {user}, {message}, lorem ipsum...",
		"response_word_count": "50-200 words",
	})
}

// ---- frame IO ----

func (g *Gateway) enqueueJSON(ctx context.Context, client *wsConn, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-client.Done():
		return false
	case client.Send <- b:
		return true
	default:
		return false
	}
}

func (g *Gateway) writeFrame(parent context.Context, conn *websocket.Conn, frame []byte) error {
	ctx, cancel := context.WithTimeout(parent, g.cfg.WriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, frame)
}

func readText(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	_, data, err := conn.Read(ctx)
	return data, err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
