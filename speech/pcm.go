package speech

import (
	"bytes"
	"errors"
	"fmt"
)

// pcm16 converts one float32 sample to a signed 16-bit value. Samples are
// clamped to [-1, 1]; 1.0 maps to 32767 and -1.0 to -32768.
func pcm16(s float32) int16 {
	if s > 1.0 {
		s = 1.0
	} else if s < -1.0 {
		s = -1.0
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}

// EncodePCM16 converts float32 samples to raw little-endian 16-bit PCM.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		v := pcm16(s)
		out = append(out, byte(v), byte(v>>8))
	}
	return out
}

// DecodePCM16 converts raw little-endian 16-bit PCM back to float32 samples.
// A trailing odd byte is ignored.
func DecodePCM16(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
		if v < 0 {
			out[i] = float32(v) / 32768
		} else {
			out[i] = float32(v) / 32767
		}
	}
	return out
}

// EncodeWAV wraps samples in a 16-bit mono RIFF/WAV container.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	dataSize := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	// RIFF header
	buf.WriteString("RIFF")
	writeUint32LE(buf, uint32(36+dataSize))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	writeUint32LE(buf, 16)
	writeUint16LE(buf, 1) // PCM
	writeUint16LE(buf, 1) // mono
	writeUint32LE(buf, uint32(sampleRate))
	writeUint32LE(buf, uint32(sampleRate*2)) // byte rate
	writeUint16LE(buf, 2)                    // block align
	writeUint16LE(buf, 16)                   // bits per sample

	// data chunk
	buf.WriteString("data")
	writeUint32LE(buf, uint32(dataSize))
	buf.Write(EncodePCM16(samples))

	return buf.Bytes()
}

// DecodeWAV extracts mono 16-bit PCM samples and the sample rate from a WAV
// container. Data that does not start with a RIFF header is treated as raw
// 16-bit PCM at the given fallback rate.
func DecodeWAV(data []byte, fallbackRate int) ([]float32, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return DecodePCM16(data), fallbackRate, nil
	}

	rate := fallbackRate
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(readUint32LE(data[offset+4:]))
		body := offset + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, errors.New("wav: short fmt chunk")
			}
			if format := readUint16LE(data[body:]); format != 1 {
				return nil, 0, fmt.Errorf("wav: unsupported format %d, want PCM", format)
			}
			if channels := readUint16LE(data[body+2:]); channels != 1 {
				return nil, 0, fmt.Errorf("wav: %d channels, want mono", channels)
			}
			rate = int(readUint32LE(data[body+4:]))
			if bits := readUint16LE(data[body+14:]); bits != 16 {
				return nil, 0, fmt.Errorf("wav: %d bits per sample, want 16", bits)
			}
		case "data":
			return DecodePCM16(data[body : body+size]), rate, nil
		}

		// Chunks are word-aligned.
		offset = body + size + size%2
	}
	return nil, 0, errors.New("wav: no data chunk")
}

func writeUint16LE(w *bytes.Buffer, v uint16) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
}

func writeUint32LE(w *bytes.Buffer, v uint32) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
	w.WriteByte(byte(v >> 16))
	w.WriteByte(byte(v >> 24))
}

func readUint16LE(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func readUint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// FrameEncoder turns captured sample frames into binary wire messages. The
// two strategies are mutually exclusive per session; both satisfy the same
// contract of binary audio frames over the open socket.
type FrameEncoder interface {
	Name() string
	Encode(samples []float32) []byte
}

// PCMFrames sends raw 16-bit PCM, the compact default.
type PCMFrames struct{}

func (PCMFrames) Name() string { return "pcm" }

func (PCMFrames) Encode(s []float32) []byte { return EncodePCM16(s) }

// WAVFrames sends each frame as a self-describing WAV chunk, for services
// that expect container-encoded blobs rather than raw PCM.
type WAVFrames struct {
	SampleRate int
}

func (WAVFrames) Name() string { return "wav" }

func (w WAVFrames) Encode(s []float32) []byte {
	rate := w.SampleRate
	if rate == 0 {
		rate = 16000
	}
	return EncodeWAV(s, rate)
}

// NewFrameEncoder selects a framing strategy by name, defaulting to raw PCM.
func NewFrameEncoder(name string, sampleRate int) FrameEncoder {
	if name == "wav" {
		return WAVFrames{SampleRate: sampleRate}
	}
	return PCMFrames{}
}
