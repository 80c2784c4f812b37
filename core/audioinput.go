package orchestration

import (
	"context"
	"errors"
	"sync/atomic"
)

var errRecorderNotBegun = errors.New("recorder not begun")

// audioInput wraps the configured recorder so the capture device is never
// opened twice and closing an unopened device is a no-op. An unconfigured
// facade accepts every call and records nothing.
type audioInput struct {
	// client is the configured recorder, nil when unconfigured
	client Recorder

	// begun reports whether the capture device is currently open
	begun atomic.Bool
}

func newAudioInput(client Recorder) *audioInput {
	audioInput := audioInput{}
	audioInput.Set(client)
	return &audioInput
}

// Set replaces the configured recorder. Nil and typed-nil clients are
// treated as unconfigured.
func (a *audioInput) Set(client Recorder) {
	if a == nil {
		return
	}

	a.client = nil
	a.begun.Store(false)
	if isNilClient(client) {
		return
	}
	a.client = client
}

func (a *audioInput) IsConfigured() bool { return a != nil && a.client != nil }
func (a *audioInput) IsOpen() bool       { return a != nil && a.begun.Load() }

func (a *audioInput) Begin(ctx context.Context) error {
	if !a.IsConfigured() || a.begun.Load() {
		return nil
	}

	if err := a.client.Begin(ctx); err != nil {
		return err
	}
	a.begun.Store(true)
	return nil
}

func (a *audioInput) Recording() bool {
	return a.IsConfigured() && a.begun.Load() && a.client.Recording()
}

func (a *audioInput) Pause() error {
	if !a.IsConfigured() || !a.begun.Load() {
		return nil
	}
	return a.client.Pause()
}

func (a *audioInput) Record(ctx context.Context, onFrame func(mono []int16)) error {
	if !a.IsConfigured() {
		return nil
	} else if !a.begun.Load() {
		return errRecorderNotBegun
	}
	return a.client.Record(ctx, onFrame)
}

func (a *audioInput) End() error {
	if !a.IsConfigured() || !a.begun.CompareAndSwap(true, false) {
		return nil
	}
	return a.client.End()
}
