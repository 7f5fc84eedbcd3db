package sim

import (
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// TextObject is an interpreter-owned string value as seen from native code.
// Bindings hand these to DecodeText instead of converting them themselves.
type TextObject interface {
	textObject()
}

// RawBytes is the raw-byte string form. It is copied verbatim.
type RawBytes []byte

// Unicode is the textual string form: a sequence of code points whose length is
// authoritative, so embedded NULs survive. Code points that cannot be encoded as
// UTF-8 (surrogates, out-of-range values) make the whole value undecodable.
type Unicode []rune

func (RawBytes) textObject() {}
func (Unicode) textObject()  {}

// DecodeStatus tells how a DecodeResult was produced.
type DecodeStatus uint8

const (
	// Decoded means Text holds the full value.
	Decoded DecodeStatus = iota
	// EmptyOnError means the value could not be encoded as UTF-8.
	EmptyOnError
	// EmptyUnsupported means the object was nil or of an unexpected kind.
	EmptyUnsupported
)

// String returns a short name for the status.
func (s DecodeStatus) String() string {
	switch s {
	case Decoded:
		return "decoded"
	case EmptyOnError:
		return "empty-on-error"
	case EmptyUnsupported:
		return "empty-unsupported"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// DecodeResult keeps the reason a field came out empty even though callers of the
// public frame descriptors only ever see the empty string.
type DecodeResult struct {
	Text   string
	Status DecodeStatus
	Err    error
}

// String collapses the result to its observable value.
func (r DecodeResult) String() string {
	if r.Status != Decoded {
		return ""
	}
	return r.Text
}

var decodeFailures atomic.Uint64

// DecodeFailures returns how many DecodeText calls degraded to an empty string.
func DecodeFailures() uint64 {
	return decodeFailures.Load()
}

// DecodeText extracts a Go string from an interpreter text object. It never fails:
// anything it cannot decode becomes an empty string with the reason attached.
func DecodeText(obj TextObject) DecodeResult {
	switch v := obj.(type) {
	case RawBytes:
		return DecodeResult{Text: string(v), Status: Decoded}
	case Unicode:
		var b strings.Builder
		b.Grow(len(v))
		for i, r := range v {
			if !utf8.ValidRune(r) {
				return decodeFailed(EmptyOnError, fmt.Errorf("code point %U at index %d is not encodable", r, i))
			}
			b.WriteRune(r)
		}
		return DecodeResult{Text: b.String(), Status: Decoded}
	default:
		return decodeFailed(EmptyUnsupported, fmt.Errorf("unsupported text object %T", obj))
	}
}

func decodeFailed(status DecodeStatus, err error) DecodeResult {
	decodeFailures.Add(1)
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		logrus.Tracef("text decode degraded to empty: %v", err)
	}
	return DecodeResult{Status: status, Err: err}
}
