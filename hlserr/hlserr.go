// Package hlserr defines the error taxonomy shared by the MPEG-TS muxer,
// the live playlist managers and the timed-metadata subsystem.
//
// Errors are represented as a single tagged type rather than a hierarchy of
// concrete error types, following the "sum types over inheritance" guidance
// used throughout this codebase for closed enumerations.
package hlserr

import "fmt"

// Kind enumerates the distinct error conditions the core can raise.
type Kind int

const (
	// StreamEnded is returned when a playlist mutation is attempted after
	// EndStream has been called.
	StreamEnded Kind = iota
	// InvalidSegmentIndex is returned for a non-monotonic or otherwise bad
	// segment index.
	InvalidSegmentIndex
	// ParentSegmentNotFound is returned when a partial segment references a
	// parent that isn't present in the playlist.
	ParentSegmentNotFound
	// InvalidConfiguration is returned for unusable configuration values.
	InvalidConfiguration
	// InvalidAvcConfig is returned for a malformed avcC/SPS/PPS parameter set.
	InvalidAvcConfig
	// InvalidAudioConfig is returned for a malformed esds/ADTS audio config.
	InvalidAudioConfig
	// UnsupportedCodec is returned when a stream type isn't AVC, HEVC or AAC.
	UnsupportedCodec
	// PesError is returned when a PES serialization invariant is broken.
	PesError
	// PacketError is returned when a TS packet serialization invariant is
	// broken.
	PacketError
	// UnknownID is returned when an operation references an id that isn't
	// tracked by a date-range or interstitial manager.
	UnknownID
)

var kindNames = map[Kind]string{
	StreamEnded:           "StreamEnded",
	InvalidSegmentIndex:   "InvalidSegmentIndex",
	ParentSegmentNotFound: "ParentSegmentNotFound",
	InvalidConfiguration:  "InvalidConfiguration",
	InvalidAvcConfig:      "InvalidAvcConfig",
	InvalidAudioConfig:    "InvalidAudioConfig",
	UnsupportedCodec:      "UnsupportedCodec",
	PesError:              "PesError",
	PacketError:           "PacketError",
	UnknownID:             "UnknownID",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Error is a structured error carrying a Kind and a short reason.
type Error struct {
	Kind   Kind
	Reason string
	Err    error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, hlserr.New(kind, "")) to match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs an Error of the given kind.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap constructs an Error of the given kind, wrapping an underlying cause.
func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}
