// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"errors"
	"fmt"
)

var (
	ErrNotWavFile           = errors.New("not a WAV file")
	ErrUnsupportedWavLayout = errors.New("unsupported WAV layout")
	ErrNotPCM               = errors.New("only PCM (format 1) is supported")
	ErrUnsupportedBitDepth  = errors.New("unsupported bits per sample")
	ErrMissingFormat        = errors.New("missing fmt chunk")
	ErrMissingData          = errors.New("missing data chunk")
	ErrDuplicateChunk       = errors.New("duplicate chunk")
	ErrShortChunk           = errors.New("chunk too short")
)

// ChunkError reports a problem with one chunk of the file.
type ChunkError struct {
	ID  string
	Err error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("wav chunk %q: %v", e.ID, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }
