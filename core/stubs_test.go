package orchestration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/deltamod3/aida-voice-agent/core/audio"
	"github.com/deltamod3/aida-voice-agent/core/events"
	"github.com/deltamod3/aida-voice-agent/core/realtime"
)

const waitTimeout = 2 * time.Second

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) count(call string) int {
	count := 0
	for _, c := range l.snapshot() {
		if c == call {
			count++
		}
	}
	return count
}

type stubRecorder struct {
	log *callLog

	mu        sync.Mutex
	recording bool
	onFrame   func([]int16)
	beginErr  error
	endErr    error
}

func (r *stubRecorder) Begin(context.Context) error {
	r.log.add("recorder.begin")
	return r.beginErr
}

func (r *stubRecorder) Record(_ context.Context, onFrame func([]int16)) error {
	r.log.add("recorder.record")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = true
	r.onFrame = onFrame
	return nil
}

func (r *stubRecorder) Pause() error {
	r.log.add("recorder.pause")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
	return nil
}

func (r *stubRecorder) End() error {
	r.log.add("recorder.end")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
	r.onFrame = nil
	return r.endErr
}

func (r *stubRecorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

func (r *stubRecorder) frame(samples []int16) bool {
	r.mu.Lock()
	onFrame := r.onFrame
	r.mu.Unlock()
	if onFrame == nil {
		return false
	}
	onFrame(samples)
	return true
}

type stubPlayer struct {
	log *callLog

	mu          sync.Mutex
	added       map[string]int
	offset      audio.TrackOffset
	offsetOK    bool
	panicOnConn bool
	panicOnStop bool
}

func (p *stubPlayer) Connect(context.Context) error {
	p.log.add("player.connect")
	if p.panicOnConn {
		panic("no audio device")
	}
	return nil
}

func (p *stubPlayer) Add16BitPCM(samples []int16, trackID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.added == nil {
		p.added = map[string]int{}
	}
	p.added[trackID] += len(samples)
	return nil
}

func (p *stubPlayer) Interrupt() (audio.TrackOffset, bool) {
	p.log.add("player.interrupt")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset, p.offsetOK
}

func (p *stubPlayer) Stop() error {
	p.log.add("player.stop")
	if p.panicOnStop {
		panic("device gone")
	}
	return nil
}

func (p *stubPlayer) addedSamples(trackID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.added[trackID]
}

type cancelCall struct {
	itemID string
	offset int
}

type stubSession struct {
	log *callLog

	mu          sync.Mutex
	handler     func(realtime.Event)
	configs     []realtime.SessionConfig
	messages    [][]realtime.ContentPart
	cancels     []cancelCall
	appended    int
	connectErr  error
	connectGate chan struct{}
}

func (s *stubSession) Connect(ctx context.Context) error {
	s.log.add("session.connect")
	s.mu.Lock()
	gate := s.connectGate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectErr
}

func (s *stubSession) Disconnect() error {
	s.log.add("session.disconnect")
	return nil
}

func (s *stubSession) Reset() error {
	s.log.add("session.reset")
	return nil
}

func (s *stubSession) UpdateSession(_ context.Context, config realtime.SessionConfig) error {
	s.log.add("session.update")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs = append(s.configs, config)
	return nil
}

func (s *stubSession) SendUserMessageContent(_ context.Context, content []realtime.ContentPart) error {
	s.log.add("session.send_user_message")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, content)
	return nil
}

func (s *stubSession) AppendInputAudio(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appended += len(samples)
	return nil
}

func (s *stubSession) CancelResponse(_ context.Context, itemID string, sampleCount int) error {
	s.log.add("session.cancel_response")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels = append(s.cancels, cancelCall{itemID: itemID, offset: sampleCount})
	return nil
}

func (s *stubSession) SetEventHandler(handler func(realtime.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

func (s *stubSession) emit(event realtime.Event) {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler != nil {
		handler(event)
	}
}

func (s *stubSession) cancelCalls() []cancelCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cancelCall(nil), s.cancels...)
}

type harness struct {
	log      *callLog
	recorder *stubRecorder
	player   *stubPlayer
	session  *stubSession
}

func newHarness() *harness {
	log := &callLog{}
	return &harness{
		log:      log,
		recorder: &stubRecorder{log: log},
		player:   &stubPlayer{log: log},
		session:  &stubSession{log: log},
	}
}

func (h *harness) orchestrator(opts ...OrchestratorOption) *Orchestrator {
	base := []OrchestratorOption{WithRecorder(h.recorder), WithPlayer(h.player), WithSession(h.session)}
	return NewOrchestrator(append(base, opts...)...)
}

func waitFor(t *testing.T, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(waitTimeout)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", description)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func waitForState(t *testing.T, o *Orchestrator, state SessionState) {
	t.Helper()
	waitFor(t, "state "+state.String(), func() bool { return o.State() == state })
}

// settle waits until the loop handled every event queued so far.
func settle(t *testing.T, o *Orchestrator) {
	t.Helper()

	done := make(chan struct{})
	o.Handle(probeEvent{done: done, once: &sync.Once{}})
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for the orchestrator loop")
	}
}

// probeEvent signals once the loop picks it up, which means every event
// queued before it has been handled.
type probeEvent struct {
	done chan struct{}
	once *sync.Once
}

func (p probeEvent) Kind() events.Kind {
	p.once.Do(func() { close(p.done) })
	return "test.probe"
}

func (p probeEvent) Timestamp() time.Time { return time.Time{} }
