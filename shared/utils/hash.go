package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// PayloadHash returns a stable sha256 of a JSON payload. Object keys are
// re-sorted so semantically equal payloads hash equally.
func PayloadHash(payload json.RawMessage) (string, error) {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	var decoded interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("payload is not valid JSON: %w", err)
	}
	canonical, err := json.Marshal(decoded)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize payload: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
