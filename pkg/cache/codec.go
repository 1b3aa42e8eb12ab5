package cache

import (
	"github.com/goccy/go-json"
)

// Encode serializes a cached record. Every read decodes a fresh copy, so
// callers can mutate returned entities without affecting the cache.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode deserializes a cached record into v.
func Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
