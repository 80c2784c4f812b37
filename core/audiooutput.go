package orchestration

import (
	"context"
	"sync/atomic"

	"github.com/deltamod3/aida-voice-agent/core/audio"
)

// audioOutput wraps the configured player the same way audioInput wraps the
// recorder. Audio sent to a player that is not connected is dropped.
type audioOutput struct {
	// client is the configured player, nil when unconfigured
	client Player

	// connected reports whether the playback device is currently open
	connected atomic.Bool
}

func newAudioOutput(client Player) *audioOutput {
	audioOutput := audioOutput{}
	audioOutput.Set(client)
	return &audioOutput
}

// Set replaces the configured player. Nil and typed-nil clients are treated
// as unconfigured.
func (a *audioOutput) Set(client Player) {
	if a == nil {
		return
	}

	a.client = nil
	a.connected.Store(false)
	if isNilClient(client) {
		return
	}
	a.client = client
}

func (a *audioOutput) IsConfigured() bool { return a != nil && a.client != nil }
func (a *audioOutput) IsOpen() bool       { return a != nil && a.connected.Load() }

func (a *audioOutput) Connect(ctx context.Context) error {
	if !a.IsConfigured() || a.connected.Load() {
		return nil
	}

	if err := a.client.Connect(ctx); err != nil {
		return err
	}
	a.connected.Store(true)
	return nil
}

func (a *audioOutput) Add16BitPCM(samples []int16, trackID string) error {
	if !a.IsConfigured() || !a.connected.Load() {
		return nil
	}
	return a.client.Add16BitPCM(samples, trackID)
}

func (a *audioOutput) Interrupt() (audio.TrackOffset, bool) {
	if !a.IsConfigured() || !a.connected.Load() {
		return audio.TrackOffset{}, false
	}
	return a.client.Interrupt()
}

func (a *audioOutput) Stop() error {
	if !a.IsConfigured() || !a.connected.CompareAndSwap(true, false) {
		return nil
	}
	return a.client.Stop()
}
