// Package main provides a CI-friendly smoke test for the finboard realtime
// endpoints.
//
// It validates:
//   - login over HTTP and token issuance
//   - chart stream handshake + first data frame
//   - interval update -> ack
//   - rejected handshake without a token (close 1008)
//   - chat echo + start of the assistant reply
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const maxReadBytes = 1 << 20 // 1MiB

func main() {
	var (
		base     = flag.String("base", "http://127.0.0.1:8000", "HTTP base URL of the server")
		username = flag.String("username", "demo", "Login username")
		password = flag.String("password", "SecureDemo123!", "Login password")
		chart    = flag.String("chart", "line", "Chart type to stream (line, pie, bar)")
		interval = flag.Int("interval", 1000, "Interval to request in ms")
		timeout  = flag.Duration("timeout", 10*time.Second, "Per-step timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	root := context.Background()

	token := mustLogin(root, *base, *username, *password, *timeout)
	if *verbose {
		fmt.Printf("logged in as %q\n", *username)
	}

	wsBase := "ws" + strings.TrimPrefix(*base, "http")

	mustRejectWithoutToken(root, wsBase+"/charts/ws/"+*chart, *timeout)

	chartConn := mustDial(root, fmt.Sprintf("%s/charts/ws/%s?token=%s", wsBase, *chart, token), *timeout)
	defer closeWS(chartConn)

	frame := mustReadJSON(root, chartConn, *timeout)
	if _, ok := frame["timestamp"]; !ok {
		fatalf("chart frame missing timestamp: %v", frame)
	}
	if *verbose {
		fmt.Printf("chart %s first frame: %v\n", *chart, frame)
	}

	mustUpdateInterval(root, chartConn, *interval, *timeout)

	chatConn := mustDial(root, wsBase+"/chat/ws?token="+token, *timeout)
	defer closeWS(chatConn)

	mustChatRoundTrip(root, chatConn, "how is my portfolio doing?", *timeout)

	fmt.Printf("OK: chart=%s interval=%dms chat echo + reply start\n", *chart, *interval)
}

func mustLogin(parent context.Context, base, username, password string, stepTimeout time.Duration) string {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		fatalf("marshal login: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/auth/login", bytes.NewReader(body))
	if err != nil {
		fatalf("build login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("login: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReadBytes))
	if err != nil {
		fatalf("read login response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		fatalf("login failed: status=%d body=%s", resp.StatusCode, raw)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		fatalf("unmarshal login response: %v", err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		fatalf("login response missing access_token")
	}
	return out.AccessToken
}

func mustDial(parent context.Context, wsURL string, stepTimeout time.Duration) *websocket.Conn {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	conn, resp, err := websocket.Dial(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("dial %s: %v", wsURL, err)
	}
	conn.SetReadLimit(maxReadBytes)
	return conn
}

// mustRejectWithoutToken asserts that an unauthenticated handshake is
// accepted and then closed with policy violation (1008).
func mustRejectWithoutToken(parent context.Context, wsURL string, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	conn, resp, err := websocket.Dial(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("dial (no token) %s: %v", wsURL, err)
	}
	defer closeWS(conn)

	_, _, err = conn.Read(ctx)
	if err == nil {
		fatalf("expected close without token, got a frame")
	}
	if websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		fatalf("expected close 1008 without token, got: %v", err)
	}
}

func mustReadJSON(parent context.Context, conn *websocket.Conn, stepTimeout time.Duration) map[string]any {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		fatalf("read: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		fatalf("bad json frame: %v (%s)", err, data)
	}
	return m
}

func mustUpdateInterval(parent context.Context, conn *websocket.Conn, intervalMS int, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	req, err := json.Marshal(map[string]int{"interval_ms": intervalMS})
	if err != nil {
		fatalf("marshal interval update: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, req); err != nil {
		fatalf("write interval update: %v", err)
	}

	// Data frames may interleave with the ack.
	for i := 0; i < 20; i++ {
		m := mustReadJSON(parent, conn, stepTimeout)
		if errMsg, ok := m["error"].(string); ok {
			fatalf("interval update rejected: %s", errMsg)
		}
		if m["status"] == "interval_updated" {
			got, ok := m["interval_ms"].(float64)
			if !ok || int(got) != intervalMS {
				fatalf("ack interval mismatch: got=%v want=%d", m["interval_ms"], intervalMS)
			}
			return
		}
	}
	fatalf("no interval ack within 20 frames")
}

func mustChatRoundTrip(parent context.Context, conn *websocket.Conn, text string, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	req, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		fatalf("marshal chat message: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, req); err != nil {
		fatalf("write chat message: %v", err)
	}

	echo := mustReadJSON(parent, conn, stepTimeout)
	if echo["sender"] != "user" || echo["message"] != text {
		fatalf("unexpected chat echo: %v", echo)
	}
	if echo["is_complete"] != true {
		fatalf("chat echo not complete: %v", echo)
	}

	partial := mustReadJSON(parent, conn, stepTimeout)
	if partial["sender"] != "assistant" {
		fatalf("expected assistant frame, got: %v", partial)
	}
	msg, _ := partial["message"].(string)
	if !strings.HasPrefix(msg, "Excellent ") {
		fatalf("unexpected reply start: %q", msg)
	}
}

func closeWS(conn *websocket.Conn) {
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
