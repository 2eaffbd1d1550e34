package playback

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/kinoray-player/kinoray/demux"
)

// Kind classifies playback failures for the host application. Open-time kinds
// are recoverable by calling Open again; loop-time kinds are informational.
type Kind int

const (
	KindUnknown Kind = iota
	KindFileNotFound
	KindInvalidFormat
	KindCodecNotSupported
	KindDecoding
	KindRendering
	KindNetwork
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindFileNotFound:      "file not found",
	KindInvalidFormat:     "invalid format",
	KindCodecNotSupported: "codec not supported",
	KindDecoding:          "decoding error",
	KindRendering:         "rendering error",
	KindNetwork:           "network error",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Error is the structured failure surfaced through OnError callbacks.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// classifyOpenError maps source-open failures onto the error taxonomy.
func classifyOpenError(path string, err error) *Error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return newError(KindFileNotFound, path, err)
	case errors.Is(err, demux.ErrUnreadableContainer), errors.Is(err, demux.ErrNoStreamInfo):
		return newError(KindInvalidFormat, path, err)
	default:
		return newError(KindUnknown, path, err)
	}
}
