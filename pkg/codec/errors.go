package codec

import (
	"errors"
	"fmt"
)

// Decode errors.
var (
	ErrTooShort      = errors.New("file too short")
	ErrBadMagic      = errors.New("bad magic")
	ErrVersion       = errors.New("unsupported version")
	ErrCompression   = errors.New("unsupported compression")
	ErrKeyframeCount = errors.New("invalid keyframe count")
	ErrKeyframeTime  = errors.New("invalid keyframe time")
	ErrZeroID        = errors.New("zero id")
)

// ErrorKind separates malformed input from a graph that fails verification.
type ErrorKind uint8

// Error kinds.
const (
	KindSyntax ErrorKind = iota + 1
	KindStructure
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindStructure:
		return "structure"
	}
	return "unknown"
}

// DecodeError is returned by Decode for every failure.
type DecodeError struct {
	Kind ErrorKind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: %v error: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
