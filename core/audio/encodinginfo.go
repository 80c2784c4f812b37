package audio

import "time"

const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1
)

// EncodingInfo describes a mono PCM stream.
type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

// BytesPerSecond reports the byte rate of a mono stream in this encoding.
func (e EncodingInfo) BytesPerSecond() int {
	return e.SampleRate * e.Format.ByteSize()
}

// SamplesPer reports how many samples make up d of audio.
func (e EncodingInfo) SamplesPer(d time.Duration) int {
	return int(time.Duration(e.BytesPerSecond()) * d / time.Second / time.Duration(e.Format.ByteSize()))
}

type encodingFormat string

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingLinear16 encodingFormat = "linear16"
)
