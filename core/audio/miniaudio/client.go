package miniaudio

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

// Client owns the miniaudio context shared by the capture and playback
// devices. The devices themselves are opened and closed independently.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext

	Recorder *Recorder
	Player   *Player
}

func NewClient(sampleRate int) (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) { logger.Debug("malgo", "message", message) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	return &Client{
		audioContext: audioCtx,
		Recorder:     &Recorder{audioContext: audioCtx, sampleRate: uint32(sampleRate)},
		Player:       newPlayer(audioCtx, uint32(sampleRate)),
	}, nil
}

func (c *Client) Close() {
	_ = c.Recorder.End()
	_ = c.Player.Stop()
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}
