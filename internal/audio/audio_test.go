package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/youpy/go-wav"
)

func pcmOf(d time.Duration, f Format) []byte {
	n := int(d.Seconds() * float64(f.SampleRate*f.Channels*2))
	return make([]byte, n)
}

func TestFormatDuration(t *testing.T) {
	require.Equal(t, time.Second, DefaultFormat.Duration(32000))
	require.Equal(t, 500*time.Millisecond, DefaultFormat.Duration(16000))
	require.Equal(t, time.Second, Format{SampleRate: 8000, Channels: 2}.Duration(32000))
}

func TestBufferSignalsOncePerWindow(t *testing.T) {
	b := NewBuffer(DefaultFormat, 2*time.Second)

	require.False(t, b.Add(pcmOf(time.Second, DefaultFormat)))
	require.True(t, b.Add(pcmOf(time.Second, DefaultFormat)))
	// still over the threshold but already signalled
	require.False(t, b.Add(pcmOf(time.Second, DefaultFormat)))
	require.Equal(t, 3*time.Second, b.Duration())

	out := b.Drain()
	require.Len(t, out, 3*32000)
	require.Equal(t, time.Duration(0), b.Duration())

	require.False(t, b.Add(pcmOf(time.Second, DefaultFormat)))
	require.True(t, b.Add(pcmOf(time.Second, DefaultFormat)))
}

func TestViable(t *testing.T) {
	require.False(t, Viable(DefaultFormat, nil, time.Second))
	require.False(t, Viable(DefaultFormat, pcmOf(500*time.Millisecond, DefaultFormat), time.Second))
	require.True(t, Viable(DefaultFormat, pcmOf(time.Second, DefaultFormat), time.Second))
}

func TestEncodeWAVRoundTrip(t *testing.T) {
	values := []int16{0, 1200, -1200, 32767, -32768}
	pcm := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(v))
	}

	data, err := EncodeWAV(pcm, DefaultFormat)
	require.NoError(t, err)
	require.Equal(t, "RIFF", string(data[:4]))

	r := wav.NewReader(bytes.NewReader(data))
	format, err := r.Format()
	require.NoError(t, err)
	require.Equal(t, uint16(1), format.NumChannels)
	require.Equal(t, uint32(16000), format.SampleRate)

	var got []int
	for {
		samples, err := r.ReadSamples()
		for _, s := range samples {
			got = append(got, s.Values[0])
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	require.Equal(t, []int{0, 1200, -1200, 32767, -32768}, got)
}

func TestEncodeWAVRejectsTooManyChannels(t *testing.T) {
	_, err := EncodeWAV(make([]byte, 12), Format{SampleRate: 16000, Channels: 3})
	require.Error(t, err)
}
