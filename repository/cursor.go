package repository

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// StoryCursor is the decoded form of an opaque listing page token. It
// records the ordering key of the last story already returned.
type StoryCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// EncodeStoryCursor produces the opaque token handed back to clients.
func EncodeStoryCursor(c StoryCursor) string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeStoryCursor parses a client-supplied page token.
func DecodeStoryCursor(token string) (StoryCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return StoryCursor{}, fmt.Errorf("decode page token: %w", err)
	}
	var c StoryCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return StoryCursor{}, fmt.Errorf("decode page token: %w", err)
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return StoryCursor{}, fmt.Errorf("decode page token: incomplete cursor")
	}
	return c, nil
}
