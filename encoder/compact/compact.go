// Package compact implements the binary layout shared by state diffs and contract classes:
// compact variable-width integers, length-prefixed sequences, fixed-width integers and field
// elements.
package compact

// Encodable is implemented by every type with a compact wire layout.
type Encodable interface {
	EncodeCompact(w *Writer)
}

// Decodable is the decoding counterpart of Encodable.
type Decodable interface {
	DecodeCompact(r *Reader) error
}

func Marshal(v Encodable) []byte {
	var w Writer
	v.EncodeCompact(&w)
	return w.Bytes()
}

// Unmarshal decodes b into v. Bytes left over after v are an error.
func Unmarshal(b []byte, v Decodable, opts ...Option) error {
	rest, err := UnmarshalFirst(b, v, opts...)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return structural(ErrTrailingBytes, "%d bytes", len(rest))
	}
	return nil
}

// UnmarshalFirst decodes a single value from the front of b and returns the bytes following it.
func UnmarshalFirst(b []byte, v Decodable, opts ...Option) ([]byte, error) {
	r := NewReader(b, opts...)
	if err := v.DecodeCompact(r); err != nil {
		return nil, err
	}
	return r.Rest(), nil
}
