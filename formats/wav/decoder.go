// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/squid/audio"
)

// Format is the content of the fmt chunk.
type Format struct {
	AudioFormat   uint16
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// BlockAlign is the size of one frame in bytes.
func (f Format) BlockAlign() int { return f.Channels * f.BitsPerSample / 8 }

type wavSource struct {
	r         io.Reader
	format    Format
	width     int
	remaining int64
	buf       []byte
}

func (s *wavSource) SampleRate() int { return s.format.SampleRate }
func (s *wavSource) Channels() int   { return s.format.Channels }
func (s *wavSource) Close() error    { return nil }
func (s *wavSource) BufSize() int    { return len(s.buf) / s.width }

// Format returns the decoded fmt chunk.
func (s *wavSource) Format() Format { return s.format }

// ReadSamples returns io.EOF at the end of the data chunk and a
// *ChunkError when the stream ends before the size the header declared.
func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	if s.remaining == 0 {
		return 0, io.EOF
	}

	want := int(min(int64(len(dst)*s.width), s.remaining))
	if len(s.buf) < want {
		s.buf = make([]byte, want)
	}

	n, err := io.ReadFull(s.r, s.buf[:want])
	s.remaining -= int64(n)

	samples := n / s.width
	decode(dst[:samples], s.buf[:samples*s.width], s.format.BitsPerSample)

	switch {
	case err == nil:
		return samples, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return samples, &ChunkError{ID: "data", Err: io.ErrUnexpectedEOF}
	default:
		return samples, fmt.Errorf("read wav data: %w", err)
	}
}

func decode(dst []float32, b []byte, bits int) {
	switch bits {
	case 8:
		for i := range dst {
			dst[i] = (float32(b[i]) - 128) / 128
		}
	case 16:
		for i := range dst {
			v := int16(binary.LittleEndian.Uint16(b[2*i:]))
			dst[i] = max(float32(v)/math.MaxInt16, -1)
		}
	case 24:
		for i := range dst {
			p := b[3*i:]
			v := int32(uint32(p[0])<<8|uint32(p[1])<<16|uint32(p[2])<<24) >> 8
			dst[i] = max(float32(v)/8388607, -1)
		}
	case 32:
		for i := range dst {
			v := int32(binary.LittleEndian.Uint32(b[4*i:]))
			dst[i] = max(float32(float64(v)/math.MaxInt32), -1)
		}
	}
}

// Decoder reads canonical PCM WAV streams.
type Decoder struct{}

// Decode parses the header and returns a source positioned at the first
// sample. Reading stops at the end of the data chunk.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	f, size, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	width := f.BitsPerSample / 8
	return &wavSource{
		r:         r,
		format:    f,
		width:     width,
		remaining: int64(size),
		buf:       make([]byte, 4096*width),
	}, nil
}

// ReadHeader walks the chunks up to the start of the sample data and
// returns the format and the data size in bytes. Unknown chunks are
// skipped; a second fmt chunk or a data chunk before fmt is an error.
func ReadHeader(r io.Reader) (Format, uint32, error) {
	var f Format

	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return f, 0, fmt.Errorf("%w: %w", ErrNotWavFile, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return f, 0, ErrNotWavFile
	}

	seenFmt := false
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if !seenFmt {
				return f, 0, ErrMissingFormat
			}
			return f, 0, ErrMissingData
		}

		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			if seenFmt {
				return f, 0, &ChunkError{ID: id, Err: ErrDuplicateChunk}
			}
			parsed, err := readFormat(r, size)
			if err != nil {
				return f, 0, &ChunkError{ID: id, Err: err}
			}
			f, seenFmt = parsed, true

		case "data":
			if !seenFmt {
				return f, 0, &ChunkError{ID: id, Err: ErrMissingFormat}
			}
			return f, size, nil

		default:
			if err := skip(r, int64(size)+int64(size&1)); err != nil {
				return f, 0, &ChunkError{ID: id, Err: err}
			}
		}
	}
}

func readFormat(r io.Reader, size uint32) (Format, error) {
	var f Format

	if size < 16 {
		return f, fmt.Errorf("%w: %d bytes", ErrShortChunk, size)
	}

	// only the PCM fields are read; extensions and padding are skipped
	var body [16]byte
	if _, err := io.ReadFull(r, body[:]); err != nil {
		return f, err
	}
	if err := skip(r, int64(size)-16+int64(size&1)); err != nil {
		return f, err
	}

	f = Format{
		AudioFormat:   binary.LittleEndian.Uint16(body[0:2]),
		Channels:      int(binary.LittleEndian.Uint16(body[2:4])),
		SampleRate:    int(binary.LittleEndian.Uint32(body[4:8])),
		BitsPerSample: int(binary.LittleEndian.Uint16(body[14:16])),
	}

	if f.AudioFormat != 1 {
		return f, fmt.Errorf("%w: format %d", ErrNotPCM, f.AudioFormat)
	}
	switch f.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return f, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, f.BitsPerSample)
	}
	if f.Channels == 0 || f.SampleRate == 0 {
		return f, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedWavLayout, f.Channels, f.SampleRate)
	}

	return f, nil
}

func skip(r io.Reader, n int64) error {
	if s, ok := r.(io.Seeker); ok {
		_, err := s.Seek(n, io.SeekCurrent)
		return err
	}
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// ReadAll decodes a whole stream into interleaved samples.
func ReadAll(r io.Reader) ([]float32, Format, error) {
	f, size, err := ReadHeader(r)
	if err != nil {
		return nil, f, err
	}

	data, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, f, &ChunkError{ID: "data", Err: err}
	}
	if len(data) < int(size) {
		return nil, f, &ChunkError{ID: "data", Err: io.ErrUnexpectedEOF}
	}

	width := f.BitsPerSample / 8
	out := make([]float32, len(data)/width)
	decode(out, data[:len(out)*width], f.BitsPerSample)

	return out, f, nil
}
