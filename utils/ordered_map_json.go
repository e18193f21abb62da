package utils

import (
	"bytes"
	"encoding"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// MarshalJSON emits a JSON object whose members follow insertion order. Keys must implement
// encoding.TextMarshaler or be strings.
func (m OrderedMap[K, V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for key, v := range m.All() {
		name, err := textKey(key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("value of %s: %w", name, err)
		}

		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(name))
		buf.WriteByte(':')
		buf.Write(value)
		i++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON inserts the members of a JSON object in document order. Keys must implement
// encoding.TextUnmarshaler or be strings.
func (m *OrderedMap[K, V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = OrderedMap[K, V]{}
		return nil
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var out OrderedMap[K, V]
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", tok)
		}

		var key K
		if err = parseTextKey(name, &key); err != nil {
			return err
		}
		var value V
		if err = dec.Decode(&value); err != nil {
			return fmt.Errorf("value of %s: %w", name, err)
		}
		out.Put(key, value)
	}
	if _, err = dec.Token(); err != nil {
		return err
	}

	*m = out
	return nil
}

func textKey(key any) (string, error) {
	switch k := key.(type) {
	case encoding.TextMarshaler:
		text, err := k.MarshalText()
		return string(text), err
	case string:
		return k, nil
	default:
		return "", fmt.Errorf("unsupported map key type %T", key)
	}
}

func parseTextKey(name string, key any) error {
	switch k := key.(type) {
	case encoding.TextUnmarshaler:
		return k.UnmarshalText([]byte(name))
	case *string:
		*k = name
		return nil
	default:
		return fmt.Errorf("unsupported map key type %T", key)
	}
}
