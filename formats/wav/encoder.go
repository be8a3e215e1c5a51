// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/squid/utils"
)

// Encoder streams 16-bit PCM into a seekable writer. The header sizes are
// patched on Close, so the total length need not be known up front.
type Encoder struct {
	enc *gowav.Encoder
	buf *goaudio.IntBuffer
}

func NewEncoder(ws io.WriteSeeker, sampleRate, channels int) *Encoder {
	return &Encoder{
		enc: gowav.NewEncoder(ws, sampleRate, 16, channels, 1),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}
}

// Write appends interleaved samples in [-1,1].
func (e *Encoder) Write(samples []float32) error {
	if cap(e.buf.Data) < len(samples) {
		e.buf.Data = make([]int, len(samples))
	}
	e.buf.Data = e.buf.Data[:len(samples)]

	for i, s := range samples {
		e.buf.Data[i] = int(utils.Float32ToInt16(s))
	}

	if err := e.enc.Write(e.buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}

// Close finalises the header. It does not close the underlying writer.
func (e *Encoder) Close() error {
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}
	return nil
}
