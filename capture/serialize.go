package capture

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// MarshalPayload serialises a Payload to JSON.
func MarshalPayload(p *Payload) ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalPayload deserialises a Payload from JSON.
func UnmarshalPayload(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// HashHTML returns the SHA-256 hex digest of captured markup.
func HashHTML(html string) string {
	h := sha256.Sum256([]byte(html))
	return fmt.Sprintf("%x", h)
}
