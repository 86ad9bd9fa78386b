package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/game"
	"github.com/kelesetlogelo-tech/if-i-were-game/internal/session"
)

func TestEventsStream(t *testing.T) {
	r := testRouter(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	token, code := createRoom(t, r, "Ana", 4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/room/events?token="+token, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event-stream content type, got %q", ct)
	}

	// First event is the current snapshot.
	snap := readStateEvent(t, bufio.NewScanner(resp.Body))
	if snap.Code != code || snap.Phase != game.PhaseWaitingRoom {
		t.Errorf("initial event: expected %s waiting-room, got %s %s", code, snap.Code, snap.Phase)
	}
}

// readStateEvent scans SSE lines until one state event has been read.
func readStateEvent(t *testing.T, sc *bufio.Scanner) session.Snapshot {
	t.Helper()
	sawState := false
	for sc.Scan() {
		line := sc.Text()
		if line == "event: state" {
			sawState = true
			continue
		}
		if sawState && strings.HasPrefix(line, "data: ") {
			var snap session.Snapshot
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			return snap
		}
	}
	t.Fatalf("stream ended without a state event: %v", sc.Err())
	return session.Snapshot{}
}

func TestEventsRequiresSession(t *testing.T) {
	r := testRouter(t)

	w := do(t, r, http.MethodGet, "/api/room/events", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestWebSocketStream(t *testing.T) {
	r := testRouter(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	token, code := createRoom(t, r, "Ana", 4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/room/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	var snap session.Snapshot
	if err := wsjson.Read(ctx, conn, &snap); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snap.Code != code || snap.PlayerName != "Ana" {
		t.Errorf("expected %s for Ana, got %s for %s", code, snap.Code, snap.PlayerName)
	}

	// A join by another player is pushed to the socket.
	joinRoom(t, r, code, "Ben")
	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := wsjson.Read(ctx, conn, &snap); err != nil {
			t.Fatalf("read update: %v", err)
		}
		if len(snap.Players) == 2 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("socket never saw the join")
		}
	}
}
