package router

import (
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mylog "github.com/microdog/wechat-automated-jump-game/internal/logger"
	"github.com/microdog/wechat-automated-jump-game/internal/solver"
)

type streamReply struct {
	Type       string  `json:"type"`
	DurationMs *int    `json:"duration_ms,omitempty"`
	Piece      *point  `json:"piece,omitempty"`
	Platform   *point  `json:"platform,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// HandleStream keeps one websocket per driver: every binary message is a
// frame and gets exactly one JSON reply.
func HandleStream(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jitter, err := ParseJitter(r.URL.Query().Get("jitter"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			d.Logger.WarnContext(r.Context(), "websocket accept error", "err", err)
			return
		}
		defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
		if d.MaxBytes > 0 {
			conn.SetReadLimit(d.MaxBytes)
		}

		ctx := mylog.WithBackend(r.Context(), d.Backend)
		d.Logger.InfoContext(ctx, "websocket connected", "remote", r.RemoteAddr)

		for {
			typ, frame, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					d.Logger.DebugContext(ctx, "websocket read error", "err", err)
				}
				return
			}
			if typ != websocket.MessageBinary {
				_ = wsjson.Write(ctx, conn, streamReply{Type: "error", Error: "frames must be binary messages"})
				continue
			}

			reqCtx := mylog.WithRequestID(ctx, "")
			res, err := d.Solver.SolveBytes(reqCtx, frame)
			reply := streamReply{Type: "result"}
			switch {
			case errors.Is(err, solver.ErrInvalidInput):
				reply = streamReply{Type: "error", Error: err.Error()}
			case err != nil:
				d.Logger.ErrorContext(reqCtx, "solve failed", "err", err)
				reply = streamReply{Type: "error", Error: "internal error"}
			case !res.Found:
				d.publish(reqCtx, res)
				reply = streamReply{Type: "not_found", Scale: res.Scale}
			default:
				d.publish(reqCtx, res)
				ms := d.Jitter.Apply(res.DurationMs, jitter)
				reply.DurationMs = &ms
				reply.Piece = &point{res.Piece.X, res.Piece.Y}
				reply.Platform = &point{res.Platform.X, res.Platform.Y}
				reply.Scale = res.Scale
			}
			if err := wsjson.Write(ctx, conn, reply); err != nil {
				d.Logger.DebugContext(ctx, "websocket write error", "err", err)
				return
			}
		}
	}
}
