package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/youpy/go-wav"
)

// EncodeWAV wraps 16-bit little-endian PCM in a WAV container.
func EncodeWAV(pcm []byte, f Format) ([]byte, error) {
	channels := f.Channels
	if channels <= 0 {
		channels = 1
	}
	if channels > 2 {
		return nil, fmt.Errorf("encode wav: %d channels not supported", channels)
	}
	frameSize := 2 * channels
	frames := len(pcm) / frameSize

	samples := make([]wav.Sample, frames)
	for i := 0; i < frames; i++ {
		off := i * frameSize
		var s wav.Sample
		for ch := 0; ch < channels; ch++ {
			v := int16(binary.LittleEndian.Uint16(pcm[off+2*ch:]))
			s.Values[ch] = int(v)
		}
		samples[i] = s
	}

	var buf bytes.Buffer
	w := wav.NewWriter(&buf, uint32(frames), uint16(channels), uint32(f.SampleRate), 16)
	if err := w.WriteSamples(samples); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	return buf.Bytes(), nil
}
