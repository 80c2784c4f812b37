package transcriptstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deltamod3/aida-voice-agent/core/transcript"
	"github.com/gorilla/websocket"
)

const (
	waitTimeout  = 2 * time.Second
	quietTimeout = 100 * time.Millisecond
)

type testServer struct {
	*httptest.Server

	accepted chan *websocket.Conn
	requests atomic.Int32
	reject   atomic.Int32
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{accepted: make(chan *websocket.Conn, 10)}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if s.reject.Load() > 0 {
			s.reject.Add(-1)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.accepted <- conn
	}))
	t.Cleanup(s.Close)

	return s
}

func (s *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func (s *testServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()

	select {
	case conn := <-s.accepted:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(waitTimeout):
		t.Fatalf("expected a connection to be accepted")
		return nil
	}
}

func (s *testServer) expectNoConnection(t *testing.T) {
	t.Helper()

	select {
	case <-s.accepted:
		t.Fatalf("expected no connection to be accepted")
	case <-time.After(quietTimeout):
	}
}

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) Chan() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()                  { f.stopped.Store(true) }

func (f *fakeTicker) tick(t *testing.T) {
	t.Helper()

	select {
	case f.ch <- time.Now():
	case <-time.After(waitTimeout):
		t.Fatalf("expected retry loop to consume the tick")
	}
}

type fakeTickers struct {
	created chan *fakeTicker
}

func newFakeTickers() *fakeTickers {
	return &fakeTickers{created: make(chan *fakeTicker, 10)}
}

func (f *fakeTickers) new(time.Duration) Ticker {
	ticker := &fakeTicker{ch: make(chan time.Time)}
	f.created <- ticker
	return ticker
}

func (f *fakeTickers) next(t *testing.T) *fakeTicker {
	t.Helper()

	select {
	case ticker := <-f.created:
		return ticker
	case <-time.After(waitTimeout):
		t.Fatalf("expected a retry ticker to be created")
		return nil
	}
}

func (f *fakeTickers) expectNone(t *testing.T) {
	t.Helper()

	select {
	case <-f.created:
		t.Fatalf("expected no retry ticker to be created")
	case <-time.After(quietTimeout):
	}
}

func waitFor(t *testing.T, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(waitTimeout)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", description)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestForwardsFragmentsInOrder(t *testing.T) {
	server := newTestServer(t)
	received := make(chan transcript.Fragment, 10)
	client := New(server.wsURL(), func(f transcript.Fragment) { received <- f }, WithTicker(newFakeTickers().new))
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	conn := server.accept(t)

	messages := []string{
		`{"bot_id":"b","transcript":{"speaker":"Bob","words":[{"text":"hey"}],"is_final":false}}`,
		`{"bot_id":"b","transcript":{"speaker":"Bob","words":[{"text":"hey"},{"text":"aida"}],"is_final":true}}`,
	}
	for _, msg := range messages {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("failed to write message: %v", err)
		}
	}

	for _, expected := range []string{"hey", "hey aida"} {
		select {
		case f := <-received:
			if f.Text() != expected {
				t.Fatalf("expected fragment %q, got %q", expected, f.Text())
			}
		case <-time.After(waitTimeout):
			t.Fatalf("expected fragment %q", expected)
		}
	}
}

func TestDropsMalformedAndBinaryMessages(t *testing.T) {
	server := newTestServer(t)
	received := make(chan transcript.Fragment, 10)
	client := New(server.wsURL(), func(f transcript.Fragment) { received <- f }, WithTicker(newFakeTickers().new))
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	conn := server.accept(t)

	conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"bot_id":"b"}`))
	conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3})
	conn.WriteMessage(websocket.TextMessage, []byte(`{"transcript":{"words":[{"text":"ok"}],"is_final":true}}`))

	select {
	case f := <-received:
		if f.Text() != "ok" {
			t.Fatalf("expected only the valid fragment, got %q", f.Text())
		}
	case <-time.After(waitTimeout):
		t.Fatalf("expected the valid fragment to be delivered")
	}

	select {
	case f := <-received:
		t.Fatalf("expected no more fragments, got %+v", f)
	case <-time.After(quietTimeout):
	}

	if !client.IsConnected() {
		t.Fatalf("expected malformed messages not to end the connection")
	}
}

func TestDeepgramDecoder(t *testing.T) {
	server := newTestServer(t)
	received := make(chan transcript.Fragment, 10)
	client := New(server.wsURL(), func(f transcript.Fragment) { received <- f },
		WithDecoder(transcript.DecodeDeepgram), WithTicker(newFakeTickers().new))
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	conn := server.accept(t)

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Metadata"}`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"words":[{"word":"hello","start":0,"end":0.2}]}]}}`))

	select {
	case f := <-received:
		if f.Text() != "hello" || !f.IsFinal {
			t.Fatalf("unexpected fragment %+v", f)
		}
	case <-time.After(waitTimeout):
		t.Fatalf("expected the results fragment to be delivered")
	}
}

func TestReconnectsOncePerTickAndStopsAfterReopen(t *testing.T) {
	server := newTestServer(t)
	tickers := newFakeTickers()
	client := New(server.wsURL(), nil, WithTicker(tickers.new))
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	first := server.accept(t)
	tickers.expectNone(t)

	first.Close()
	ticker := tickers.next(t)
	waitFor(t, "connection to be discarded", func() bool { return !client.IsConnected() })

	server.expectNoConnection(t)
	if got := server.requests.Load(); got != 1 {
		t.Fatalf("expected no reconnect before the tick, got %d requests", got)
	}

	ticker.tick(t)
	server.accept(t)
	if got := server.requests.Load(); got != 2 {
		t.Fatalf("expected exactly one reconnect attempt, got %d requests", got-1)
	}

	waitFor(t, "retry ticker to stop", ticker.stopped.Load)
	waitFor(t, "client to report connected", client.IsConnected)

	select {
	case ticker.ch <- time.Now():
		t.Fatalf("expected retry loop to stop after reopen")
	case <-time.After(quietTimeout):
	}
	tickers.expectNone(t)
}

func TestFailedInitialConnectSchedulesRetries(t *testing.T) {
	server := newTestServer(t)
	server.reject.Store(2)
	tickers := newFakeTickers()
	client := New(server.wsURL(), nil, WithTicker(tickers.new))
	defer client.Close()

	if err := client.Connect(context.Background()); err == nil {
		t.Fatalf("expected initial connect to fail")
	}
	ticker := tickers.next(t)

	ticker.tick(t)
	waitFor(t, "second attempt", func() bool { return server.requests.Load() == 2 })
	server.expectNoConnection(t)

	ticker.tick(t)
	server.accept(t)
	if got := server.requests.Load(); got != 3 {
		t.Fatalf("expected 3 requests, got %d", got)
	}
	waitFor(t, "retry ticker to stop", ticker.stopped.Load)
	tickers.expectNone(t)
}

func TestCloseStopsReconnecting(t *testing.T) {
	server := newTestServer(t)
	tickers := newFakeTickers()
	client := New(server.wsURL(), nil, WithTicker(tickers.new))

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	conn := server.accept(t)

	client.Close()

	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close frame, got %v", err)
	}
	if client.IsConnected() {
		t.Fatalf("expected client to be disconnected")
	}
	tickers.expectNone(t)

	if err := client.Connect(context.Background()); err != ErrClosed {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
	tickers.expectNone(t)
}

func TestCloseCancelsPendingRetry(t *testing.T) {
	server := newTestServer(t)
	server.reject.Store(1)
	tickers := newFakeTickers()
	client := New(server.wsURL(), nil, WithTicker(tickers.new))

	client.Connect(context.Background())
	ticker := tickers.next(t)

	client.Close()
	if !ticker.stopped.Load() {
		t.Fatalf("expected retry ticker to be stopped on close")
	}

	select {
	case ticker.ch <- time.Now():
		t.Fatalf("expected no retry loop after close")
	case <-time.After(quietTimeout):
	}
	if got := server.requests.Load(); got != 1 {
		t.Fatalf("expected no reconnect after close, got %d requests", got)
	}
}
