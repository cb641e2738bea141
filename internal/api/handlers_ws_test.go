package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func (e *testEnv) dialWS(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/api/v1/ws?accessToken=" + token
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	if res != nil {
		res.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWSDeliversOnlyOwnFolderEvents(t *testing.T) {
	env := newTestServer(t)
	tokenA, userA := env.login(t, "avery@example.com")
	tokenB, _ := env.login(t, "blake@example.com")

	conn := env.dialWS(t, tokenA)

	// The other user's upload must not reach this connection; the next event
	// it sees should be its own upload.
	res := env.uploadFile(t, "/api/v1/assets/", tokenB, "wheel.png", "image/png", pngBytes(t))
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("foreign upload status = %d", res.StatusCode)
	}
	res = env.uploadFile(t, "/api/v1/assets/", tokenA, "door.png", "image/png", pngBytes(t))
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("own upload status = %d", res.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var evt struct {
		Type   string `json:"type"`
		Folder string `json:"folder"`
	}
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("unmarshal event %q: %v", data, err)
	}
	if evt.Folder != userA {
		t.Fatalf("event folder = %q, want %q", evt.Folder, userA)
	}
}

func TestWSRejectsMissingToken(t *testing.T) {
	env := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/api/v1/ws"
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		conn.Close()
		t.Fatalf("dial without token succeeded")
	}
	if res == nil || res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("handshake response = %+v, want 401", res)
	}
	res.Body.Close()
}
