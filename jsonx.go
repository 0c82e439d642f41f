//go:build nojsonsimd

package main

import (
	"bytes"
	"encoding/json"
)

// Fallback for platforms where sonic's JIT is unavailable. Output matches
// the sonic build: no HTML escaping and no trailing newline.
func fastJSONMarshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

func fastJSONUnmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
