// Package ws exposes the gameplay operations to the presentation layer over
// a websocket. The client owns rendering and drag capture only; every state
// transition goes through an ACT message and the client re-renders from the
// record echoed in the RESULT.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"hearth/internal/catalog"
	"hearth/internal/player"
	"hearth/internal/protocol"
	"hearth/internal/session"
)

type Server struct {
	mgr *session.Manager
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(mgr *session.Manager, logger *log.Logger) *Server {
	return &Server{
		mgr: mgr,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(r.Context(), conn)
		if sess == nil {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		out := make(chan []byte, 8)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			// A message we cannot act on still gets a RESULT; silence
			// would leave the client waiting on its request.
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				if !push(ctx, out, result("", protocol.ErrBadRequest, nil)) {
					return
				}
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				if !push(ctx, out, result("", protocol.ErrBadRequest, nil)) {
					return
				}
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				if !push(ctx, out, result(act.Op, protocol.ErrBadRequest, nil)) {
					return
				}
				continue
			}

			if !push(ctx, out, s.dispatch(ctx, sess, act)) {
				return
			}
		}
	}
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) *session.Session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}
	playerID := strings.TrimSpace(hello.PlayerID)
	if playerID == "" {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "missing player_id"), time.Now().Add(time.Second))
		return nil
	}

	sess, rec, err := s.mgr.Open(ctx, playerID, hello.PlayerName, hello.Email)
	if err != nil {
		s.log.Printf("open session %s: %v", playerID, err)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "store unavailable"), time.Now().Add(time.Second))
		return nil
	}

	cat := s.mgr.Catalog()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        playerID,
		Catalog:         protocol.CatalogRef{Digest: cat.Digest(), Count: cat.Len()},
		Record:          rec,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil
	}
	return sess
}

func (s *Server) dispatch(ctx context.Context, sess *session.Session, act protocol.ActMsg) protocol.ResultMsg {
	var res session.Result
	switch act.Op {
	case protocol.OpBuy:
		res = sess.Buy(ctx, act.ItemID)
	case protocol.OpPlace:
		res = sess.Place(ctx, act.ItemID)
	case protocol.OpResolveSwap:
		cat := catalog.Category(act.Category)
		if !catalog.IsKnownCategory(cat) {
			return result(act.Op, protocol.ErrInvalidInput, nil)
		}
		res = sess.ResolveSwap(ctx, cat, act.ItemID, act.Accept)
	case protocol.OpReturn:
		cat := catalog.Category(act.Category)
		if !catalog.IsKnownCategory(cat) {
			return result(act.Op, protocol.ErrInvalidInput, nil)
		}
		res = sess.Return(ctx, act.ItemID, cat)
	case protocol.OpSetPosition:
		res = sess.SetPosition(ctx, act.ItemID, act.X, act.Y)
	case protocol.OpSetLayer:
		res = sess.SetLayer(ctx, act.ItemID, act.Layer)
	case protocol.OpCompleteGoal:
		res = sess.CompleteGoal(ctx, act.GoalID, act.Reward)
	case protocol.OpLogSleep:
		today := act.Today
		if today == "" {
			today = time.Now().UTC().Format("2006-01-02")
		}
		res = sess.LogSleep(ctx, act.Date, act.Hours, today)
	case protocol.OpSnapshot:
		res = sess.Snapshot(ctx)
	default:
		return result(act.Op, protocol.ErrBadRequest, nil)
	}
	return result(act.Op, res.Code, res.Record)
}

func result(op, code string, rec *player.Record) protocol.ResultMsg {
	return protocol.ResultMsg{Type: protocol.TypeResult, Op: op, Code: code, Record: rec}
}

// push hands res to the writer goroutine. False means the connection is done.
func push(ctx context.Context, out chan<- []byte, res protocol.ResultMsg) bool {
	b, err := json.Marshal(res)
	if err != nil {
		return true
	}
	select {
	case out <- b:
		return true
	case <-ctx.Done():
		return false
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
