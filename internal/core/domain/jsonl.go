package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSONL serialises records as newline-delimited JSON, one record
// per line, matching the canonical record field names including the
// computed id.
func MarshalJSONL[T any](items []T) ([]byte, error) {
	var buf bytes.Buffer
	for i, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("marshal record %d: %w", i, err)
		}
		buf.Write(raw)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// UnmarshalJSONL parses newline-delimited JSON into records. Empty lines
// are skipped. Any stored id field is ignored; identity is recomputed from
// the identity-bearing fields, so a round trip reconstructs an equal
// record.
func UnmarshalJSONL[T any](data []byte) ([]T, error) {
	out := []T{}
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("unmarshal record on line %d: %w", i+1, err)
		}
		out = append(out, item)
	}
	return out, nil
}
