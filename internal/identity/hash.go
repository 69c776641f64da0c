// Package identity provides the salted one-way hashing used to group
// devices and emails in analytics without storing raw identifiers.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hasher derives privacy-preserving hashes with separate secret peppers
// for device ids and emails.
type Hasher struct {
	devicePepper string
	emailPepper  string
}

func NewHasher(devicePepper, emailPepper string) *Hasher {
	return &Hasher{devicePepper: devicePepper, emailPepper: emailPepper}
}

// Device hashes a client-generated device identifier.
func (h *Hasher) Device(deviceID string) string {
	return digest(deviceID, h.devicePepper)
}

// Email hashes a normalized (lowercased, trimmed) email address.
func (h *Hasher) Email(email string) string {
	return digest(strings.ToLower(strings.TrimSpace(email)), h.emailPepper)
}

// Short returns the 8-character display form of a hash. It is only for
// human-readable analytics, never for lookups.
func Short(hash string) string {
	if len(hash) <= 8 {
		return hash
	}
	return hash[:8]
}

func digest(value, pepper string) string {
	sum := sha256.Sum256([]byte(value + pepper))
	return hex.EncodeToString(sum[:])
}
