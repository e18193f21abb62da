package compact

import "github.com/NethermindEth/starknet-api/utils"

// WriteSequence writes len(items) followed by every item in slice order.
func WriteSequence[T any](w *Writer, items []T, enc func(*Writer, T)) {
	w.WriteLen(len(items))
	for _, item := range items {
		enc(w, item)
	}
}

// ReadSequence reads a sequence written by WriteSequence. An empty sequence decodes to an empty,
// non-nil slice.
func ReadSequence[T any](r *Reader, dec func(*Reader) (T, error)) ([]T, error) {
	n, err := r.ReadLen()
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, r.Capacity(n))
	for i := 0; i < n; i++ {
		item, err := dec(r)
		if err != nil {
			return nil, Index(i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func EncodeSequence[T any](items []T, enc func(*Writer, T)) []byte {
	var w Writer
	WriteSequence(&w, items, enc)
	return w.Bytes()
}

// DecodeSequence decodes a sequence from the front of b and returns the remaining bytes.
func DecodeSequence[T any](b []byte, dec func(*Reader) (T, error), opts ...Option) ([]T, []byte, error) {
	r := NewReader(b, opts...)
	items, err := ReadSequence(r, dec)
	if err != nil {
		return nil, nil, err
	}
	return items, r.Rest(), nil
}

// WriteMap writes an ordered map as a sequence of entries in insertion order.
func WriteMap[K comparable, V any](w *Writer, m *utils.OrderedMap[K, V], enc func(*Writer, K, V)) {
	w.WriteLen(m.Len())
	for k, v := range m.All() {
		enc(w, k, v)
	}
}

// ReadMap re-inserts entries in the order they were read; nothing is sorted. A key read twice
// keeps its first position and its last value.
func ReadMap[K comparable, V any](r *Reader, dec func(*Reader) (K, V, error)) (utils.OrderedMap[K, V], error) {
	n, err := r.ReadLen()
	if err != nil {
		return utils.OrderedMap[K, V]{}, err
	}
	if n == 0 {
		return utils.OrderedMap[K, V]{}, nil
	}

	m := utils.NewOrderedMap[K, V](r.Capacity(n))
	for i := 0; i < n; i++ {
		k, v, err := dec(r)
		if err != nil {
			return utils.OrderedMap[K, V]{}, Index(i, err)
		}
		m.Put(k, v)
	}
	return *m, nil
}
