package miniaudio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/deltamod3/aida-voice-agent/core/audio"
	"github.com/gen2brain/malgo"
)

// Player plays 16-bit mono audio for any number of streamed tracks.
type Player struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	sampleRate   uint32

	tracks  *audio.TrackBuffer
	scratch []int16

	mu sync.Mutex
}

func newPlayer(audioContext *malgo.AllocatedContext, sampleRate uint32) *Player {
	return &Player{
		audioContext: audioContext,
		sampleRate:   sampleRate,
		tracks:       audio.NewTrackBuffer(),
	}
}

func (p *Player) Connect(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device != nil {
		return nil
	}

	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * audio.DefaultChannels

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = p.sampleRate
	config.Playback.Format = format
	config.Playback.Channels = audio.DefaultChannels
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = p.sampleRate / 10 // ~100ms of audio
	config.Periods = 4

	device, err := malgo.InitDevice(
		p.audioContext.Context,
		config,
		malgo.DeviceCallbacks{Data: p.processAudio(bytesPerFrame)},
	)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	p.tracks.Clear()
	p.device = device
	return nil
}

func (p *Player) Add16BitPCM(samples []int16, trackID string) error {
	p.mu.Lock()
	connected := p.device != nil
	p.mu.Unlock()
	if !connected {
		return ErrDeviceNotInitialized
	}

	p.tracks.Add(trackID, samples)
	return nil
}

func (p *Player) Interrupt() (audio.TrackOffset, bool) {
	return p.tracks.Interrupt()
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device == nil {
		return nil
	}

	var err error
	if stopErr := p.device.Stop(); stopErr != nil {
		err = fmt.Errorf("failed to stop playback device: %w", stopErr)
	}
	p.device.Uninit()
	p.device = nil
	p.tracks.Clear()

	return err
}

func (p *Player) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame
		if len(pOutput) < need {
			need = len(pOutput)
		}

		samples := need / 2
		if cap(p.scratch) < samples {
			p.scratch = make([]int16, samples)
		}
		out := p.scratch[:samples]

		p.tracks.Read(out)
		for i, sample := range out {
			binary.LittleEndian.PutUint16(pOutput[i*2:], uint16(sample))
		}
	}
}
