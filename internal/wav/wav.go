// Package wav writes interleaved float32 PCM to a minimal WAVE
// container, the same byte-for-byte format the teacher repo's offline
// renderer produces, adapted here to encode the FM engine's stereo
// render buffers instead of an MML sequencer's.
package wav

import (
	"encoding/binary"
	"math"
)

// EncodeFloat32LE wraps samples (interleaved, channels-per-frame) in a
// WAVE/RIFF header for 32-bit IEEE-float PCM at sampleRate.
func EncodeFloat32LE(samples []float32, sampleRate, channels int) []byte {
	const bytesPerSample = 4
	dataSize := len(samples) * bytesPerSample
	byteRate := sampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample
	chunkSize := 36 + dataSize

	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3) // IEEE float
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*bytesPerSample:], math.Float32bits(s))
	}
	return out
}
