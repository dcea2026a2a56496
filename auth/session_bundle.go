package auth

import (
	"encoding/json"
	"fmt"
	"time"
)

// sessionBundle is the JSON document kept under the session key. expiresAt is
// epoch milliseconds.
type sessionBundle struct {
	AccessToken  string   `json:"accessToken"`
	ExpiresAt    *int64   `json:"expiresAt"`
	RefreshToken *string  `json:"refreshToken"`
	Scope        []string `json:"scope"`
}

func (b sessionBundle) encode() (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode session bundle: %w", err)
	}
	return string(data), nil
}

func decodeBundle(raw string) (*sessionBundle, error) {
	var b sessionBundle
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, fmt.Errorf("decode session bundle: %w", err)
	}
	if b.AccessToken == "" {
		return nil, fmt.Errorf("decode session bundle: missing accessToken")
	}
	return &b, nil
}

func (b sessionBundle) expiry() time.Time {
	if b.ExpiresAt == nil {
		return time.Time{}
	}
	return time.UnixMilli(*b.ExpiresAt)
}
