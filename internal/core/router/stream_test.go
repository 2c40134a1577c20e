package router

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/microdog/wechat-automated-jump-game/internal/solver"
)

func dialStream(t *testing.T, fs *fakeSolver, query string) (*websocket.Conn, context.Context) {
	t.Helper()
	srv := httptest.NewServer(HandleStream(Deps{Logger: discard(), Solver: fs, MaxBytes: 1 << 20}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn, ctx
}

func TestHandleStream_RoundTrip(t *testing.T) {
	fs := &fakeSolver{res: found()}
	conn, ctx := dialStream(t, fs, "")

	for range 2 {
		if err := conn.Write(ctx, websocket.MessageBinary, []byte("frame")); err != nil {
			t.Fatalf("write: %v", err)
		}
		var reply streamReply
		if err := wsjson.Read(ctx, conn, &reply); err != nil {
			t.Fatalf("read: %v", err)
		}
		if reply.Type != "result" || reply.DurationMs == nil || *reply.DurationMs != 612 || reply.Piece == nil || *reply.Piece != (point{300, 900}) {
			t.Fatalf("unexpected reply %+v", reply)
		}
	}
}

func TestHandleStream_NotFoundAndErrors(t *testing.T) {
	fs := &fakeSolver{res: solver.Result{Scale: 0.5}}
	conn, ctx := dialStream(t, fs, "?jitter=0.05")

	_ = conn.Write(ctx, websocket.MessageBinary, []byte("frame"))
	var reply streamReply
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Type != "not_found" {
		t.Fatalf("reply=%+v want not_found", reply)
	}

	fs.setErr(solver.ErrInvalidImage)
	_ = conn.Write(ctx, websocket.MessageBinary, []byte("junk"))
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Type != "error" || !strings.Contains(reply.Error, "invalid image data") {
		t.Fatalf("reply=%+v want invalid image error", reply)
	}

	_ = conn.Write(ctx, websocket.MessageText, []byte("hello"))
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Type != "error" {
		t.Fatalf("text message reply=%+v want error", reply)
	}
}

func TestHandleStream_BadJitterRejectedBeforeUpgrade(t *testing.T) {
	srv := httptest.NewServer(HandleStream(Deps{Logger: discard(), Solver: &fakeSolver{}}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?jitter=2", nil)
	if err == nil {
		t.Fatal("expected dial failure")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Fatalf("resp=%v want 400", resp)
	}
}

func TestHandleStream_ZeroDurationIsSent(t *testing.T) {
	res := found()
	res.DurationMs = 0
	conn, ctx := dialStream(t, &fakeSolver{res: res}, "")

	if err := conn.Write(ctx, websocket.MessageBinary, []byte("frame")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, b, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), `"duration_ms":0`) {
		t.Fatalf("reply=%s want duration_ms 0", b)
	}
}
