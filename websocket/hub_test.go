package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeConn struct {
	got    chan any
	fail   bool
	closed chan struct{}
}

func newFakeConn(fail bool) *fakeConn {
	return &fakeConn{got: make(chan any, 8), fail: fail, closed: make(chan struct{}, 1)}
}

func (f *fakeConn) WriteJSON(v any) error {
	if f.fail {
		return errors.New("broken pipe")
	}
	f.got <- v
	return nil
}

func (f *fakeConn) Close() error {
	select {
	case f.closed <- struct{}{}:
	default:
	}
	return nil
}

func receive(t *testing.T, c *fakeConn) any {
	t.Helper()
	select {
	case v := <-c.got:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestHubDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)

	member := uuid.New()
	admin := uuid.New()
	memberConn := newFakeConn(false)
	adminConn := newFakeConn(false)
	hub.Register(&Client{UserID: member, Role: "member", Conn: memberConn})
	hub.Register(&Client{UserID: admin, Role: "admin", Conn: adminConn})

	if !hub.SendToUser(member, "promoted") {
		t.Fatal("SendToUser dropped the message")
	}
	if got := receive(t, memberConn); got != "promoted" {
		t.Errorf("member got %v; want promoted", got)
	}

	hub.BroadcastToRole("admin", "new booking")
	if got := receive(t, adminConn); got != "new booking" {
		t.Errorf("admin got %v; want new booking", got)
	}
	select {
	case v := <-memberConn.got:
		t.Errorf("member received role broadcast %v", v)
	default:
	}
}

func TestHubDropsBrokenConnections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)

	user := uuid.New()
	broken := newFakeConn(true)
	hub.Register(&Client{UserID: user, Role: "member", Conn: broken})
	hub.SendToUser(user, "hello")

	select {
	case <-broken.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("broken connection was not closed")
	}
}
