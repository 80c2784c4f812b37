package audio

import "sync"

// TrackOffset identifies how far playback got into a track, in samples.
type TrackOffset struct {
	TrackID string
	Offset  int
}

type trackChunk struct {
	trackID string
	samples []int16
}

// TrackBuffer queues PCM chunks for several concurrently streamed tracks and
// hands them to an output device in arrival order.
//
// Offsets count samples handed to the device, which is the closest
// approximation of what the listener actually heard.
type TrackBuffer struct {
	mu sync.Mutex

	queue       []trackChunk
	offsets     map[string]int
	interrupted map[string]struct{}
}

func NewTrackBuffer() *TrackBuffer {
	return &TrackBuffer{
		offsets:     map[string]int{},
		interrupted: map[string]struct{}{},
	}
}

// Add queues samples for trackID. Audio for a track that was already
// interrupted is dropped and false is returned.
func (b *TrackBuffer) Add(trackID string, samples []int16) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.interrupted[trackID]; ok {
		return false
	}
	if len(samples) == 0 {
		return true
	}

	b.queue = append(b.queue, trackChunk{trackID: trackID, samples: samples})
	return true
}

// Read fills out with queued audio, padding with silence, and returns the
// number of queued samples that were consumed.
func (b *TrackBuffer) Read(out []int16) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for n < len(out) && len(b.queue) > 0 {
		chunk := b.queue[0]
		copied := copy(out[n:], chunk.samples)
		b.offsets[chunk.trackID] += copied
		n += copied

		if copied == len(chunk.samples) {
			b.queue = b.queue[1:]
		} else {
			b.queue[0].samples = chunk.samples[copied:]
		}
	}

	clear(out[n:])
	return n
}

// Interrupt drops all queued audio and reports the track that was playing
// together with its offset. ok is false when nothing was playing.
func (b *TrackBuffer) Interrupt() (offset TrackOffset, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return TrackOffset{}, false
	}

	trackID := b.queue[0].trackID
	b.interrupted[trackID] = struct{}{}
	b.queue = nil
	return TrackOffset{TrackID: trackID, Offset: b.offsets[trackID]}, true
}

// Pending reports the number of queued samples.
func (b *TrackBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	pending := 0
	for _, chunk := range b.queue {
		pending += len(chunk.samples)
	}
	return pending
}

func (b *TrackBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queue = nil
	b.offsets = map[string]int{}
	b.interrupted = map[string]struct{}{}
}
