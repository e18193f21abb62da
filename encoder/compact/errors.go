package compact

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrTruncated           = errors.New("unexpected end of input")
	ErrLengthOverflow      = errors.New("declared length exceeds remaining input")
	ErrInvalidWidth        = errors.New("compact integer wider than 8 bytes")
	ErrNonCanonical        = errors.New("compact integer is not minimally encoded")
	ErrInvalidDiscriminant = errors.New("invalid discriminant")
	ErrInvalidJSON         = errors.New("invalid JSON payload")
	ErrTrailingBytes       = errors.New("trailing bytes after value")
	ErrInvalidUTF8         = errors.New("string is not valid UTF-8")
	ErrLimitExceeded       = errors.New("length exceeds decode limit")
	ErrOutOfRange          = errors.New("value out of range")
)

// StructuralError reports malformed input bytes. Err is one of the sentinel errors of this package,
// Field is the dotted path of the value being decoded when the failure happened.
type StructuralError struct {
	Field  string
	Err    error
	Detail string
}

func (e *StructuralError) Error() string {
	var sb strings.Builder
	sb.WriteString("compact: ")
	if e.Field != "" {
		sb.WriteString(e.Field)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Err.Error())
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// RangeError reports a well-formed value that does not fit the domain of its target type.
type RangeError struct {
	Field string
	Value string
	Err   error
}

func (e *RangeError) Error() string {
	msg := "compact: "
	if e.Field != "" {
		msg += e.Field + ": "
	}
	msg += "value " + e.Value + " out of range"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RangeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrOutOfRange}
	}
	return []error{ErrOutOfRange, e.Err}
}

func structural(err error, format string, args ...any) *StructuralError {
	return &StructuralError{Err: err, Detail: fmt.Sprintf(format, args...)}
}

// NewStructuralError builds a StructuralError for decoders living outside this package.
func NewStructuralError(err error, format string, args ...any) error {
	return structural(err, format, args...)
}

// NewRangeError builds a RangeError carrying the offending value.
func NewRangeError(value string, cause error) error {
	return &RangeError{Value: value, Err: cause}
}

// Field prefixes the field path of a StructuralError or RangeError with name.
// Other errors are returned unchanged.
func Field(name string, err error) error {
	if err == nil {
		return nil
	}

	var se *StructuralError
	if errors.As(err, &se) {
		se.Field = joinPath(name, se.Field)
		return err
	}
	var re *RangeError
	if errors.As(err, &re) {
		re.Field = joinPath(name, re.Field)
	}
	return err
}

// Index prefixes the field path with a sequence position.
func Index(i int, err error) error {
	return Field("["+strconv.Itoa(i)+"]", err)
}

func joinPath(parent, child string) string {
	switch {
	case child == "":
		return parent
	case parent == "":
		return child
	case strings.HasPrefix(child, "["):
		return parent + child
	default:
		return parent + "." + child
	}
}
