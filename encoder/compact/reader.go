package compact

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"unicode/utf8"

	"github.com/NethermindEth/starknet-api/core/felt"
)

// Reader consumes an encoding from the front of a byte slice.
type Reader struct {
	buf     []byte
	profile Profile
	limits  limits
}

func NewReader(b []byte, opts ...Option) *Reader {
	r := &Reader{buf: b, profile: Hosted, limits: Hosted.limits()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reader) Profile() Profile {
	return r.profile
}

func (r *Reader) Remaining() int {
	return len(r.buf)
}

// Rest returns the unread bytes
func (r *Reader) Rest() []byte {
	return r.buf
}

func (r *Reader) take(n int) ([]byte, error) {
	if n > len(r.buf) {
		return nil, structural(ErrTruncated, "need %d bytes, have %d", n, len(r.buf))
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b, nil
}

func (r *Reader) ReadUint() (uint64, error) {
	n, rest, err := DecodeUint(r.buf)
	if err != nil {
		return 0, err
	}
	r.buf = rest
	return n, nil
}

// ReadLen reads the length of a sequence. Every element takes at least one byte, so
// lengths above the remaining input are rejected before anything is allocated.
func (r *Reader) ReadLen() (int, error) {
	return r.readLen(r.limits.maxItems)
}

func (r *Reader) readLen(maxLen int) (int, error) {
	n, err := r.ReadUint()
	if err != nil {
		return 0, err
	}
	if n > uint64(len(r.buf)) {
		return 0, structural(ErrLengthOverflow, "length %d, remaining %d", n, len(r.buf))
	}
	if maxLen > 0 && n > uint64(maxLen) {
		return 0, structural(ErrLimitExceeded, "length %d, limit %d", n, maxLen)
	}
	return int(n), nil
}

// Capacity returns how many elements a container of declared length n should pre-allocate.
func (r *Reader) Capacity(n int) int {
	if !r.limits.preallocate {
		return 0
	}
	return min(n, len(r.buf))
}

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, structural(ErrInvalidDiscriminant, "boolean %d", b)
	}
}

// ReadUint64 reads 8 little-endian bytes
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadBytes reads a length-prefixed byte string. The result does not alias the input.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.readLen(r.limits.maxBytes)
	if err != nil {
		return nil, err
	}
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.readLen(r.limits.maxBytes)
	if err != nil {
		return "", err
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", structural(ErrInvalidUTF8, "%d bytes", n)
	}
	return string(b), nil
}

// ReadFelt reads 32 big-endian bytes, rejecting values outside the field.
func (r *Reader) ReadFelt() (felt.Felt, error) {
	b, err := r.take(felt.Bytes)
	if err != nil {
		return felt.Zero, err
	}

	var f felt.Felt
	if err := f.SetBytesCanonical(b); err != nil {
		if errors.Is(err, felt.ErrNotCanonical) {
			return felt.Zero, &RangeError{Value: "0x" + hex.EncodeToString(b), Err: err}
		}
		return felt.Zero, err
	}
	return f, nil
}

// ReadFeltLike reads any felt-backed value
func ReadFeltLike[F felt.FeltLike](r *Reader) (F, error) {
	f, err := r.ReadFelt()
	return F(f), err
}
