package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/table"
	wire "github.com/DoyleJ11/card-table-backend/internal/types"
	"github.com/DoyleJ11/card-table-backend/pkg/types"
)

const (
	writeTimeout  = 3 * time.Second
	actionTimeout = 5 * time.Second
	pingInterval  = 25 * time.Second
	readLimit     = 16 << 10
)

// Actions is the hub surface reachable from a socket.
type Actions interface {
	CreateTable(ctx context.Context, variantID table.VariantID, capacity int) (types.TableState, error)
	DiscardEmpty(ctx context.Context, tableID string) bool
	Join(ctx context.Context, connID, tableID, userID, displayName string) (types.TableState, error)
	Leave(ctx context.Context, connID string) error
	SetReady(ctx context.Context, connID string, ready bool) error
	Start(ctx context.Context, connID string) error
	UpdateCapacity(ctx context.Context, connID string, capacity int) error
	Kick(ctx context.Context, connID, seatID string) error
	AddBot(ctx context.Context, connID string) error
	Bid(ctx context.Context, connID string, bid int) error
	Double(ctx context.Context, connID string, double bool) error
	Play(ctx context.Context, connID string, cardIDs []int) error
	Disconnect(ctx context.Context, connID string)
}

func Handler(s *Server, h Actions, auth *Authenticator, log *zap.Logger) http.HandlerFunc {
	log = log.Named("ws")
	return func(w http.ResponseWriter, r *http.Request) {
		who, err := auth.Identify(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		// Same-origin only. Cross-origin dev setups need OriginPatterns here.
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Debug("accept failed", zap.Error(err))
			return
		}
		conn.SetReadLimit(readLimit)

		c := newClient(uuid.NewString())
		s.register(c)
		clog := log.With(zap.String("conn_id", c.id), zap.String("user_id", who.UserID))
		clog.Debug("connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer func() {
			cancel()
			s.remove(c.id)
			dctx, dcancel := context.WithTimeout(context.Background(), actionTimeout)
			h.Disconnect(dctx, c.id)
			dcancel()
			clog.Debug("disconnected")
		}()

		// Writer goroutine
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			defer cancel()
			writeLoop(ctx, conn, c, clog)
		}()

		d := dispatcher{h: h, connID: c.id, who: who, log: clog}
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					if ctx.Err() == nil {
						clog.Debug("read failed", zap.Error(err))
					}
				}
				break
			}
			ack := d.handle(ctx, data)
			frame, err := json.Marshal(ack)
			if err != nil {
				clog.Error("encode ack", zap.Error(err))
				continue
			}
			s.sendRaw(c.id, frame)
		}

		c.kill("closed")
		<-writerDone
	}
}

// writeLoop owns every write to conn. It flushes what is queued once the client is
// killed, then closes the socket.
func writeLoop(ctx context.Context, conn *websocket.Conn, c *client, log *zap.Logger) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	write := func(frame []byte) error {
		wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
		defer wcancel()
		return conn.Write(wctx, websocket.MessageText, frame)
	}

	for {
		select {
		case frame := <-c.out:
			if err := write(frame); err != nil {
				log.Debug("write failed", zap.Error(err))
				conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-ping.C:
			pctx, pcancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				conn.Close(websocket.StatusGoingAway, "ping timeout")
				return
			}
		case <-c.done:
			for {
				select {
				case frame := <-c.out:
					if write(frame) != nil {
						conn.Close(websocket.StatusGoingAway, c.reason)
						return
					}
				default:
					status := websocket.StatusNormalClosure
					if c.reason == "slow consumer" {
						status = websocket.StatusPolicyViolation
					}
					conn.Close(status, c.reason)
					return
				}
			}
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "bye")
			return
		}
	}
}

type dispatcher struct {
	h      Actions
	connID string
	who    Identity
	log    *zap.Logger
}

func (d dispatcher) handle(parent context.Context, data []byte) wire.Ack {
	var cm wire.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return wire.Ack{Type: types.EventAck, Message: "bad json"}
	}
	ctx, cancel := context.WithTimeout(parent, actionTimeout)
	defer cancel()

	payload, err := d.run(ctx, cm)
	ack := wire.Ack{Type: types.EventAck, RequestID: cm.RequestID, OK: err == nil, Payload: payload}
	if err != nil {
		ack.Payload = nil
		var ae *table.ActionError
		if !errors.As(err, &ae) {
			d.log.Error("action failed", zap.String("type", cm.Type), zap.Error(err))
			ae = table.ErrInternal
		}
		ack.Code, ack.Message = ae.Code, ae.Message
		d.log.Debug("action rejected", zap.String("type", cm.Type), zap.String("code", ae.Code))
	}
	return ack
}

var errUnknownCommand = &table.ActionError{Code: "UNKNOWN_COMMAND", Message: "Unknown command"}

func (d dispatcher) run(ctx context.Context, cm wire.ClientMessage) (any, error) {
	switch cm.Type {
	case wire.CmdCreate:
		created, err := d.h.CreateTable(ctx, table.VariantID(cm.Variant), cm.Capacity)
		if err != nil {
			return nil, err
		}
		joined, err := d.h.Join(ctx, d.connID, created.TableID, d.who.UserID, d.who.Name)
		if err != nil {
			// nobody else knows the id yet; don't leave an empty room in the lobby
			d.h.DiscardEmpty(context.WithoutCancel(ctx), created.TableID)
			return nil, err
		}
		return joined, nil
	case wire.CmdJoin:
		return d.h.Join(ctx, d.connID, cm.TableID, d.who.UserID, d.who.Name)
	case wire.CmdLeave:
		return nil, d.h.Leave(ctx, d.connID)
	case wire.CmdReady:
		return nil, d.h.SetReady(ctx, d.connID, cm.Ready)
	case wire.CmdStart:
		return nil, d.h.Start(ctx, d.connID)
	case wire.CmdCapacity:
		return nil, d.h.UpdateCapacity(ctx, d.connID, cm.Capacity)
	case wire.CmdKick:
		return nil, d.h.Kick(ctx, d.connID, cm.SeatID)
	case wire.CmdAddBot:
		return nil, d.h.AddBot(ctx, d.connID)
	case wire.CmdBid:
		return nil, d.h.Bid(ctx, d.connID, cm.Bid)
	case wire.CmdDouble:
		return nil, d.h.Double(ctx, d.connID, cm.Double)
	case wire.CmdPlay:
		return nil, d.h.Play(ctx, d.connID, cm.CardIDs)
	default:
		return nil, errUnknownCommand
	}
}
