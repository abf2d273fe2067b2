package ws

import (
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"hearth/internal/catalog"
	"hearth/internal/player"
	"hearth/internal/protocol"
	"hearth/internal/session"
	"hearth/internal/store"
)

func startTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	mgr := session.NewManager(store.NewMemory(), catalog.Default(), log.New(io.Discard, "", 0))
	srv := NewServer(mgr, log.New(io.Discard, "", 0))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recv(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
}

func handshake(t *testing.T, conn *websocket.Conn, playerID string) protocol.WelcomeMsg {
	t.Helper()
	send(t, conn, protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerID:        playerID,
		PlayerName:      "Ada",
	})
	var welcome protocol.WelcomeMsg
	recv(t, conn, &welcome)
	return welcome
}

func TestHandshake_Welcome(t *testing.T) {
	_, url := startTestServer(t)
	conn := dial(t, url)

	welcome := handshake(t, conn, "p1")
	if welcome.Type != protocol.TypeWelcome || welcome.PlayerID != "p1" {
		t.Fatalf("welcome: %+v", welcome)
	}
	if welcome.Catalog.Count != 16 || welcome.Catalog.Digest == "" {
		t.Fatalf("catalog ref: %+v", welcome.Catalog)
	}
	if welcome.Record == nil || welcome.Record.Balance != player.StartingBalance {
		t.Fatalf("record: %+v", welcome.Record)
	}
}

func TestHandshake_RejectsMissingPlayerID(t *testing.T) {
	_, url := startTestServer(t)
	conn := dial(t, url)

	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected close on missing player_id")
	}
}

func TestAct_BuyPlaceFlow(t *testing.T) {
	_, url := startTestServer(t)
	conn := dial(t, url)
	handshake(t, conn, "p1")

	send(t, conn, protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Op: protocol.OpBuy, ItemID: "lamp1"})
	var res protocol.ResultMsg
	recv(t, conn, &res)
	if res.Code != protocol.OKPurchased || res.Op != protocol.OpBuy {
		t.Fatalf("buy result: %+v", res)
	}
	if res.Record == nil || res.Record.Balance != player.StartingBalance-30 {
		t.Fatalf("buy record: %+v", res.Record)
	}

	send(t, conn, protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Op: protocol.OpPlace, ItemID: "lamp1"})
	recv(t, conn, &res)
	if res.Code != protocol.OKPlaced {
		t.Fatalf("place result: %+v", res)
	}
	if res.Record.Placements[catalog.CategoryLamp] != "lamp1" {
		t.Fatalf("place record: %+v", res.Record)
	}
}

func TestAct_UnknownOp(t *testing.T) {
	_, url := startTestServer(t)
	conn := dial(t, url)
	handshake(t, conn, "p1")

	send(t, conn, protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Op: "teleport"})
	var res protocol.ResultMsg
	recv(t, conn, &res)
	if res.Code != protocol.ErrBadRequest {
		t.Fatalf("result: %+v", res)
	}
}

func TestAct_MalformedJSONGetsResult(t *testing.T) {
	_, url := startTestServer(t)
	conn := dial(t, url)
	handshake(t, conn, "p1")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var res protocol.ResultMsg
	recv(t, conn, &res)
	if res.Code != protocol.ErrBadRequest {
		t.Fatalf("result: %+v", res)
	}
}

func TestAct_VersionMismatchGetsResult(t *testing.T) {
	_, url := startTestServer(t)
	conn := dial(t, url)
	handshake(t, conn, "p1")

	send(t, conn, protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: "0.9", Op: protocol.OpBuy, ItemID: "lamp1"})
	var res protocol.ResultMsg
	recv(t, conn, &res)
	if res.Code != protocol.ErrBadRequest || res.Op != protocol.OpBuy {
		t.Fatalf("result: %+v", res)
	}

	// The connection stays usable afterwards.
	send(t, conn, protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Op: protocol.OpBuy, ItemID: "lamp1"})
	recv(t, conn, &res)
	if res.Code != protocol.OKPurchased {
		t.Fatalf("followup: %+v", res)
	}
}

func TestAct_BadCategory(t *testing.T) {
	_, url := startTestServer(t)
	conn := dial(t, url)
	handshake(t, conn, "p1")

	send(t, conn, protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Op: protocol.OpReturn, ItemID: "lamp1", Category: "sofa"})
	var res protocol.ResultMsg
	recv(t, conn, &res)
	if res.Code != protocol.ErrInvalidInput {
		t.Fatalf("result: %+v", res)
	}
}
