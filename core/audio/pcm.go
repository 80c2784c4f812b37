package audio

import "encoding/binary"

// PCM16FromBytes decodes little-endian 16-bit samples. A trailing odd byte is
// ignored.
func PCM16FromBytes(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// PCM16ToBytes encodes samples as little-endian 16-bit PCM.
func PCM16ToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(sample))
	}
	return data
}
