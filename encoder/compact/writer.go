package compact

import (
	"encoding/binary"

	"github.com/NethermindEth/starknet-api/core/felt"
)

// Writer accumulates an encoding. The zero value is ready to use.
type Writer struct {
	buf []byte
}

func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoding written so far. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) WriteUint(n uint64) {
	w.buf = AppendUint(w.buf, n)
}

// WriteLen writes a sequence or byte-string length
func (w *Writer) WriteLen(n int) {
	w.WriteUint(uint64(n))
}

// WriteTag writes a single-byte discriminant
func (w *Writer) WriteTag(tag byte) {
	w.buf = append(w.buf, tag)
}

func (w *Writer) WriteBool(b bool) {
	if b {
		w.WriteTag(1)
		return
	}
	w.WriteTag(0)
}

// WriteUint64 writes v as 8 little-endian bytes
func (w *Writer) WriteUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteRaw appends b without a length prefix
func (w *Writer) WriteRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteBytes writes a length-prefixed byte string
func (w *Writer) WriteBytes(b []byte) {
	w.WriteLen(len(b))
	w.WriteRaw(b)
}

func (w *Writer) WriteString(s string) {
	w.WriteLen(len(s))
	w.buf = append(w.buf, s...)
}

// WriteFelt writes the 32 big-endian bytes of f
func (w *Writer) WriteFelt(f felt.Felt) {
	b := f.Bytes()
	w.buf = append(w.buf, b[:]...)
}

// WriteFeltLike writes any felt-backed value
func WriteFeltLike[F felt.FeltLike](w *Writer, v F) {
	w.WriteFelt(felt.Felt(v))
}
