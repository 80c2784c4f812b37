package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const wavHeaderSize = 44

// EncodeWAV turns mono PCM16 samples captured at fromSampleRate into a
// playable RIFF/WAVE file at sampleRate, resampling linearly when the two
// rates differ.
func EncodeWAV(samples []int16, sampleRate, fromSampleRate int) ([]byte, error) {
	if sampleRate <= 0 || fromSampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d from %d", sampleRate, fromSampleRate)
	}

	if sampleRate != fromSampleRate {
		samples = resample(samples, fromSampleRate, sampleRate)
	}

	const (
		bitsPerSample = 16
		blockAlign    = DefaultChannels * bitsPerSample / 8
	)
	dataSize := len(samples) * 2

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+dataSize))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(DefaultChannels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(PCM16ToBytes(samples))

	return buf.Bytes(), nil
}

func resample(samples []int16, from, to int) []int16 {
	if len(samples) == 0 {
		return nil
	}

	n := int(int64(len(samples)) * int64(to) / int64(from))
	out := make([]int16, n)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		i0 := int(pos)
		if i0 >= len(samples) {
			i0 = len(samples) - 1
		}
		i1 := min(i0+1, len(samples)-1)
		frac := pos - float64(i0)
		out[i] = int16(float64(samples[i0]) + (float64(samples[i1])-float64(samples[i0]))*frac)
	}
	return out
}
