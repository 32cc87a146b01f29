package audio

import "encoding/binary"

const (
	wavHeaderSize  = 44
	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
)

// wavBlob wraps raw s16le PCM in a RIFF/WAVE header so the upload is a
// self-describing audio file.
func wavBlob(pcm []byte, sampleRate int, channels int) []byte {
	blob := make([]byte, wavHeaderSize+len(pcm))

	byteRate := sampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	copy(blob[0:4], "RIFF")
	binary.LittleEndian.PutUint32(blob[4:8], uint32(36+len(pcm)))
	copy(blob[8:12], "WAVE")

	copy(blob[12:16], "fmt ")
	binary.LittleEndian.PutUint32(blob[16:20], 16)
	binary.LittleEndian.PutUint16(blob[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(blob[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(blob[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(blob[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(blob[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(blob[34:36], bitsPerSample)

	copy(blob[36:40], "data")
	binary.LittleEndian.PutUint32(blob[40:44], uint32(len(pcm)))
	copy(blob[wavHeaderSize:], pcm)

	return blob
}
