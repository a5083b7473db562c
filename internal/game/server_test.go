package game

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jacl-coder/BorderBounce-Server/config"
	"github.com/jacl-coder/BorderBounce-Server/internal/models"
	"github.com/jacl-coder/BorderBounce-Server/internal/physics"
	"github.com/jacl-coder/BorderBounce-Server/internal/protocol"
)

func testServerConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			MaxSessions:    2,
			TickRate:       60,
			BroadcastEvery: 2,
			IdleTimeout:    time.Minute,
		},
		Game: testGameConfig(),
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
	}
}

func newTestServer(t *testing.T) (*GameServer, *httptest.Server) {
	t.Helper()
	gs := NewGameServer(testServerConfig(), nil)
	gs.newRandom = func() physics.RandomSource { return fixedRandom(0.5) }
	ts := httptest.NewServer(gs.Handler())
	t.Cleanup(func() {
		ts.Close()
		gs.closeRooms()
	})
	return gs, ts
}

func createSession(t *testing.T, ts *httptest.Server, body string) CreateSessionResponse {
	t.Helper()
	resp, err := http.Post(ts.URL+"/sessions", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /sessions: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out CreateSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func dial(t *testing.T, ts *httptest.Server, params url.Values) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?" + params.Encode()
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial: %v (status %d)", err, status)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil 读取消息直到出现指定类型
func readUntil(t *testing.T, conn *websocket.Conn, codec protocol.Codec, msgType string) protocol.Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read while waiting for %s: %v", msgType, err)
		}
		msg, err := codec.Decode(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, codec protocol.Codec, msgType string, payload interface{}) {
	t.Helper()
	data, err := codec.Encode(msgType, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	frameType := websocket.TextMessage
	if codec.Binary() {
		frameType = websocket.BinaryMessage
	}
	if err := conn.WriteMessage(frameType, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestCreateAndListSessions(t *testing.T) {
	_, ts := newTestServer(t)

	created := createSession(t, ts, `{"name":"table 1","players":["A","B"," "]}`)
	if created.Token == "" || created.Session.Name != "table 1" || created.Session.PlayerCount != 2 {
		t.Fatalf("created = %+v", created)
	}

	resp, err := http.Get(ts.URL + "/sessions")
	if err != nil {
		t.Fatalf("GET /sessions: %v", err)
	}
	defer resp.Body.Close()
	var list []models.SessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.Session.ID {
		t.Fatalf("list = %+v", list)
	}
}

func TestSessionSnapshotEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	created := createSession(t, ts, `{"players":["A","B"]}`)

	resp, err := http.Get(ts.URL + "/sessions/" + created.Session.ID)
	if err != nil {
		t.Fatalf("GET snapshot: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var snap protocol.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.SessionID != created.Session.ID || len(snap.Players) != 2 || len(snap.Segments) == 0 {
		t.Fatalf("snapshot = %+v", snap)
	}

	missing, err := http.Get(ts.URL + "/sessions/nope")
	if err != nil {
		t.Fatalf("GET missing: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("missing status = %d", missing.StatusCode)
	}
}

func TestCreateSessionLimit(t *testing.T) {
	_, ts := newTestServer(t)
	createSession(t, ts, "")
	createSession(t, ts, "")

	resp, err := http.Post(ts.URL+"/sessions", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestSessionsMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/sessions", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestWebSocketHostControlsGame(t *testing.T) {
	_, ts := newTestServer(t)
	created := createSession(t, ts, `{"players":["A"]}`)
	codec := protocol.JSONCodec{}

	conn := dial(t, ts, url.Values{"session_id": {created.Session.ID}, "token": {created.Token}})

	var welcome protocol.WelcomePayload
	if err := readUntil(t, conn, codec, protocol.TypeWelcome).Bind(&welcome); err != nil || !welcome.Host {
		t.Fatalf("welcome = %+v, %v", welcome, err)
	}

	send(t, conn, codec, protocol.TypeAddPlayer, protocol.AddPlayerPayload{Name: "B"})
	for {
		var snap protocol.Snapshot
		if err := readUntil(t, conn, codec, protocol.TypeSnapshot).Bind(&snap); err != nil {
			t.Fatalf("bind: %v", err)
		}
		if len(snap.Players) == 2 {
			break
		}
	}

	send(t, conn, codec, protocol.TypeStart, nil)
	for {
		var snap protocol.Snapshot
		if err := readUntil(t, conn, codec, protocol.TypeSnapshot).Bind(&snap); err != nil {
			t.Fatalf("bind: %v", err)
		}
		if snap.Status == models.StatusRunning && snap.Tick > 0 {
			break
		}
	}
}

func TestWebSocketViewerIsReadOnly(t *testing.T) {
	_, ts := newTestServer(t)
	created := createSession(t, ts, `{"players":["A","B"]}`)
	codec := protocol.JSONCodec{}

	conn := dial(t, ts, url.Values{"session_id": {created.Session.ID}, "token": {"forged"}})

	var welcome protocol.WelcomePayload
	if err := readUntil(t, conn, codec, protocol.TypeWelcome).Bind(&welcome); err != nil || welcome.Host {
		t.Fatalf("welcome = %+v, %v", welcome, err)
	}

	send(t, conn, codec, protocol.TypeStart, nil)
	var payload protocol.ErrorPayload
	if err := readUntil(t, conn, codec, protocol.TypeError).Bind(&payload); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if payload.Code != protocol.ErrCodeUnauthorized {
		t.Fatalf("error = %+v", payload)
	}

	send(t, conn, codec, "hello", nil)
	if err := readUntil(t, conn, codec, protocol.TypeError).Bind(&payload); err != nil || payload.Code != protocol.ErrCodeUnknownType {
		t.Fatalf("error = %+v, %v", payload, err)
	}
}

func TestWebSocketBinaryCodecs(t *testing.T) {
	_, ts := newTestServer(t)
	created := createSession(t, ts, `{"players":["A","B"]}`)

	for _, name := range []string{protocol.CodecMsgpack, protocol.CodecProto} {
		t.Run(name, func(t *testing.T) {
			codec, err := protocol.CodecByName(name)
			if err != nil {
				t.Fatalf("codec: %v", err)
			}
			conn := dial(t, ts, url.Values{
				"session_id": {created.Session.ID},
				"token":      {created.Token},
				"codec":      {name},
			})

			var snap protocol.Snapshot
			if err := readUntil(t, conn, codec, protocol.TypeSnapshot).Bind(&snap); err != nil {
				t.Fatalf("bind: %v", err)
			}
			if snap.SessionID != created.Session.ID || len(snap.Players) != 2 {
				t.Fatalf("snapshot = %+v", snap)
			}

			send(t, conn, codec, protocol.TypeRenamePlayer, protocol.RenamePlayerPayload{
				PlayerID: snap.Players[0].ID,
				Name:     "Renamed-" + name,
			})
			for {
				var next protocol.Snapshot
				if err := readUntil(t, conn, codec, protocol.TypeSnapshot).Bind(&next); err != nil {
					t.Fatalf("bind: %v", err)
				}
				if next.Players[0].Name == "Renamed-"+name {
					break
				}
			}
		})
	}
}

func TestWebSocketRejectsBadRequests(t *testing.T) {
	_, ts := newTestServer(t)
	created := createSession(t, ts, "")
	base := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?"

	cases := map[string]struct {
		params url.Values
		status int
	}{
		"unknown session": {url.Values{"session_id": {"nope"}}, http.StatusNotFound},
		"unknown codec":   {url.Values{"session_id": {created.Session.ID}, "codec": {"xml"}}, http.StatusBadRequest},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(base+c.params.Encode(), nil)
			if err == nil {
				t.Fatalf("expected dial failure")
			}
			if resp == nil || resp.StatusCode != c.status {
				t.Fatalf("resp = %v, want status %d", resp, c.status)
			}
		})
	}
}

func TestCleanupIdleRooms(t *testing.T) {
	gs, ts := newTestServer(t)
	created := createSession(t, ts, "")

	gs.config.Server.IdleTimeout = time.Hour
	gs.cleanupRooms()
	if _, ok := gs.GetRoom(created.Session.ID); !ok {
		t.Fatalf("active room removed")
	}

	gs.config.Server.IdleTimeout = 0
	time.Sleep(time.Millisecond)
	gs.cleanupRooms()
	if _, ok := gs.GetRoom(created.Session.ID); ok {
		t.Fatalf("idle room kept")
	}
}
