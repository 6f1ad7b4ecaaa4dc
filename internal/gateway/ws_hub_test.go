package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/paper-broker/internal/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitStarted(t *testing.T, s *fakeStream, want string) {
	t.Helper()
	select {
	case got := <-s.started:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("stream for %s never started", want)
	}
}

func recv(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("nothing delivered")
		return nil
	}
}

func TestHub_FanOutToSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := newFakeStream("AAPL")
	hub := NewHub(stream, discardLogger())
	go hub.Run(ctx)

	a := &Client{hub: hub, send: make(chan []byte, 4)}
	b := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.events <- clientEvent{op: opRegister, client: a}
	hub.events <- clientEvent{op: opRegister, client: b}
	hub.events <- clientEvent{op: opSubscribe, client: a, symbol: "AAPL"}
	hub.events <- clientEvent{op: opSubscribe, client: b, symbol: "AAPL"}
	waitStarted(t, stream, "AAPL")

	stream.feeds["AAPL"] <- []byte(`{"symbol":"AAPL"}`)
	assert.Equal(t, `{"symbol":"AAPL"}`, string(recv(t, a.send)))
	assert.Equal(t, `{"symbol":"AAPL"}`, string(recv(t, b.send)))

	select {
	case <-stream.started:
		t.Fatal("second subscriber must share the stream")
	default:
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(newFakeStream("AAPL"), discardLogger())
	go hub.Run(ctx)

	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.events <- clientEvent{op: opRegister, client: c}
	hub.events <- clientEvent{op: opUnregister, client: c}

	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHub_ResubscribeRestartsStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := newFakeStream("MSFT")
	hub := NewHub(stream, discardLogger())
	go hub.Run(ctx)

	c := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.events <- clientEvent{op: opRegister, client: c}
	hub.events <- clientEvent{op: opSubscribe, client: c, symbol: "MSFT"}
	waitStarted(t, stream, "MSFT")

	hub.events <- clientEvent{op: opUnsubscribe, client: c, symbol: "MSFT"}
	hub.events <- clientEvent{op: opSubscribe, client: c, symbol: "MSFT"}
	waitStarted(t, stream, "MSFT")
}

func TestHub_StreamFailureIsRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := newFakeStream("AAPL")
	stream.failures["AAPL"] = 2
	hub := NewHub(stream, discardLogger())
	hub.retryBase = 5 * time.Millisecond
	go hub.Run(ctx)

	c := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.events <- clientEvent{op: opRegister, client: c}
	hub.events <- clientEvent{op: opSubscribe, client: c, symbol: "AAPL"}
	waitStarted(t, stream, "AAPL")

	stream.feeds["AAPL"] <- []byte(`{"symbol":"AAPL"}`)
	assert.Equal(t, `{"symbol":"AAPL"}`, string(recv(t, c.send)))
}

func TestHub_Symbols(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := newFakeStream("AAPL", "MSFT")
	hub := NewHub(stream, discardLogger())
	go hub.Run(ctx)

	assert.Empty(t, hub.Symbols(ctx))

	c := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.events <- clientEvent{op: opRegister, client: c}
	hub.events <- clientEvent{op: opSubscribe, client: c, symbol: "MSFT"}
	hub.events <- clientEvent{op: opSubscribe, client: c, symbol: "AAPL"}
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"AAPL", "MSFT"}, hub.Symbols(ctx))
	}, 2*time.Second, 5*time.Millisecond)

	hub.events <- clientEvent{op: opUnregister, client: c}
	assert.Eventually(t, func() bool { return len(hub.Symbols(ctx)) == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestCheckOrigin(t *testing.T) {
	check := checkOrigin([]string{"http://localhost:5174"})
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "http://broker.local/ws/quotes", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	assert.True(t, check(req("")))
	assert.True(t, check(req("http://broker.local")))
	assert.True(t, check(req("http://localhost:5174")))
	assert.False(t, check(req("http://evil.example")))
}

func TestServeWS_StreamsQuotes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := newFakeStream("AAPL")
	logger := discardLogger()
	hub := NewHub(stream, logger)
	go hub.Run(ctx)

	h := NewHandlers(&fakeTrader{}, &fakeAccounts{}, &fakeSessions{}, nil, logger)
	srv := httptest.NewServer(NewRouter(h, hub, nil, logger))
	defer srv.Close()

	header := http.Header{}
	header.Add("Cookie", auth.CookieName+"=valid")
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/quotes"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(wsMessage{Action: "subscribe", Symbols: []string{" aapl "}}))
	waitStarted(t, stream, "AAPL")

	stream.feeds["AAPL"] <- []byte(`{"symbol":"AAPL","price":"150"}`)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"AAPL","price":"150"}`, string(data))
}
