// Package portaudio provides a recorder and a player over blocking PortAudio
// streams. It is the fallback for hosts where miniaudio cannot open devices.
package portaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deltamod3/aida-voice-agent/core/audio"
	"github.com/gordonklaus/portaudio"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/deltamod3/aida-voice-agent/core/audio/portaudio"

var logger = otelslog.NewLogger(scopeName)

var ErrStreamNotOpen = errors.New("stream not open")

const bufferDuration = 20 * time.Millisecond

// Client owns the PortAudio library lifetime.
type Client struct {
	Recorder *Recorder
	Player   *Player
}

func NewClient(sampleRate int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	encoding := audio.EncodingInfo{SampleRate: sampleRate, Format: audio.EncodingLinear16}
	framesPerBuffer := encoding.SamplesPer(bufferDuration)

	return &Client{
		Recorder: &Recorder{sampleRate: sampleRate, in: make([]int16, framesPerBuffer)},
		Player:   &Player{sampleRate: sampleRate, out: make([]int16, framesPerBuffer), tracks: audio.NewTrackBuffer()},
	}, nil
}

func (c *Client) Close() {
	_ = c.Recorder.End()
	_ = c.Player.Stop()
	if err := portaudio.Terminate(); err != nil {
		logger.Warn("failed to terminate PortAudio", "error", err)
	}
}

// Recorder reads mono 16-bit microphone audio from a blocking input stream.
type Recorder struct {
	sampleRate int
	in         []int16

	stream *portaudio.Stream
	cancel context.CancelFunc
	done   chan struct{}

	mu sync.Mutex
}

func (r *Recorder) Begin(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		return nil
	}

	stream, err := portaudio.OpenDefaultStream(audio.DefaultChannels, 0, float64(r.sampleRate), len(r.in), r.in)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	r.stream = stream
	return nil
}

// Record starts the stream and delivers every buffer to onFrame until the
// recorder is paused, ended or ctx is cancelled.
func (r *Recorder) Record(ctx context.Context, onFrame func(mono []int16)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream == nil {
		return ErrStreamNotOpen
	} else if r.cancel != nil {
		return fmt.Errorf("already recording")
	}

	if err := r.stream.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done

	go func(stream *portaudio.Stream) {
		defer close(done)
		for ctx.Err() == nil {
			if err := stream.Read(); err != nil {
				if errors.Is(err, portaudio.InputOverflowed) {
					continue
				}
				logger.Warn("failed to read input stream", "error", err)
				return
			}

			frame := make([]int16, len(r.in))
			copy(frame, r.in)
			onFrame(frame)
		}
	}(r.stream)

	return nil
}

func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream == nil {
		return ErrStreamNotOpen
	}
	return r.stopLocked()
}

func (r *Recorder) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream == nil {
		return nil
	}

	err := r.stopLocked()
	if closeErr := r.stream.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to close input stream: %w", closeErr))
	}
	r.stream = nil
	return err
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

func (r *Recorder) stopLocked() error {
	if r.cancel == nil {
		return nil
	}

	r.cancel()
	err := r.stream.Stop()
	<-r.done
	r.cancel, r.done = nil, nil
	if err != nil {
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	return nil
}

// Player writes queued tracks to a blocking output stream, padding with
// silence while nothing is queued.
type Player struct {
	sampleRate int
	out        []int16
	tracks     *audio.TrackBuffer

	stream *portaudio.Stream
	cancel context.CancelFunc
	done   chan struct{}

	mu sync.Mutex
}

func (p *Player) Connect(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		return nil
	}

	stream, err := portaudio.OpenDefaultStream(0, audio.DefaultChannels, float64(p.sampleRate), len(p.out), p.out)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start output stream: %w", err)
	}

	p.tracks.Clear()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.stream, p.cancel, p.done = stream, cancel, done

	go func() {
		defer close(done)
		for ctx.Err() == nil {
			p.tracks.Read(p.out)
			if err := stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
				logger.Warn("failed to write output stream", "error", err)
				return
			}
		}
	}()

	return nil
}

func (p *Player) Add16BitPCM(samples []int16, trackID string) error {
	p.mu.Lock()
	connected := p.stream != nil
	p.mu.Unlock()
	if !connected {
		return ErrStreamNotOpen
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

	if p.stream == nil {
		return nil
	}

	if pending := p.tracks.Pending(); pending > 0 {
		logger.Debug("dropping queued playback", "samples", pending)
	}

	p.cancel()
	<-p.done
	var err error
	if stopErr := p.stream.Stop(); stopErr != nil {
		err = fmt.Errorf("failed to stop output stream: %w", stopErr)
	}
	if closeErr := p.stream.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to close output stream: %w", closeErr))
	}
	p.stream, p.cancel, p.done = nil, nil, nil
	p.tracks.Clear()
	return err
}
