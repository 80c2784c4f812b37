package miniaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deltamod3/aida-voice-agent/core/audio"
	"github.com/gen2brain/malgo"
)

var ErrDeviceNotInitialized = errors.New("device not initialized")

// Recorder captures mono 16-bit microphone audio.
type Recorder struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	sampleRate   uint32

	onFrame   func(mono []int16)
	recording bool

	mu sync.Mutex
}

func (r *Recorder) Begin(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device != nil {
		return nil
	}

	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * audio.DefaultChannels

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = r.sampleRate
	config.Capture.Format = format
	config.Capture.Channels = audio.DefaultChannels
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	encoding := audio.EncodingInfo{SampleRate: int(r.sampleRate), Format: audio.EncodingLinear16}
	config.PeriodSizeInFrames = uint32(encoding.SamplesPer(20 * time.Millisecond))
	config.Periods = 3

	device, err := malgo.InitDevice(r.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}

			r.mu.Lock()
			onFrame := r.onFrame
			r.mu.Unlock()
			if onFrame != nil {
				onFrame(audio.PCM16FromBytes(pInput[:n]))
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	r.device = device
	return nil
}

func (r *Recorder) Record(_ context.Context, onFrame func(mono []int16)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.device == nil {
		return ErrDeviceNotInitialized
	} else if r.recording {
		return fmt.Errorf("already recording")
	}

	r.onFrame = onFrame
	if err := r.device.Start(); err != nil {
		r.onFrame = nil
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	r.recording = true
	return nil
}

func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.device == nil {
		return ErrDeviceNotInitialized
	} else if !r.recording {
		return nil
	}

	if err := r.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}

	r.onFrame = nil
	r.recording = false
	return nil
}

func (r *Recorder) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device == nil {
		return nil
	}

	var err error
	if r.recording {
		if stopErr := r.device.Stop(); stopErr != nil {
			err = fmt.Errorf("failed to stop capture device: %w", stopErr)
		}
	}
	r.device.Uninit()
	r.device = nil
	r.onFrame = nil
	r.recording = false

	return err
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}
