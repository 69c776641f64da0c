package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Row ids carry a short type prefix in front of an unhyphenated UUID,
// e.g. "c3f1a…" for a quiz post. The prefixes match the store schema.
const (
	PrefixQuiz     = "c"
	PrefixQuestion = "q"
	PrefixChoice   = "ch"
	PrefixAttempt  = "a"
	PrefixAnswer   = "ans"
	PrefixScore    = "s"
	PrefixUser     = "u"
)

// NewID returns a fresh prefixed row id.
func NewID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
