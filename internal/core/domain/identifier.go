package domain

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// idAlphabet excludes "i", "l", "1", "o" and "0" so identifiers stay
// unambiguous when read at a glance. 31^8 values in the space.
const idAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

const idLength = 8

var (
	idPattern       = regexp.MustCompile(`^[abcdefghjkmnpqrstuvwxyz23456789]{8}$`)
	suffixedPattern = regexp.MustCompile(`^[abcdefghjkmnpqrstuvwxyz23456789]{8}_[a-zA-Z0-9]+$`)
)

// Identifier is a content-addressed ID for a record: 8 characters drawn
// from idAlphabet, generated deterministically from the record's
// identity-bearing fields. It is a fingerprint, not a primary-key
// allocator; two records with identical identity fields collide by design.
type Identifier string

// SuffixedID is an Identifier with an underscore and an alphanumeric
// suffix appended, e.g. "2sgknw32_Q12345". Used when several logical
// sub-entities share a base identity.
type SuffixedID string

// GenerateID derives an Identifier from the given parts. Strings are used
// as-is; anything else is serialised to canonical JSON before hashing, so
// equal logical values always produce equal identifiers. At least one part
// is required.
func GenerateID(parts ...any) (Identifier, error) {
	if len(parts) == 0 {
		return "", WrapError(ErrInvalidInput, "generate id", errors.New("at least one part is required"))
	}

	var b strings.Builder
	for _, part := range parts {
		s, err := canonicalString(part)
		if err != nil {
			return "", fmt.Errorf("stringify id part: %w", err)
		}
		b.WriteString(s)
	}

	return hashToID(b.String()), nil
}

// GenerateSuffixedID derives a SuffixedID from the given parts and suffix.
// The suffix must be non-empty and alphanumeric.
func GenerateSuffixedID(suffix string, parts ...any) (SuffixedID, error) {
	base, err := GenerateID(parts...)
	if err != nil {
		return "", err
	}
	candidate := SuffixedID(string(base) + "_" + suffix)
	if !suffixedPattern.MatchString(string(candidate)) {
		return "", WrapError(ErrInvalidInput, "generate suffixed id",
			fmt.Errorf("suffix %q is not alphanumeric", suffix))
	}
	return candidate, nil
}

// ParseID validates s against the identifier format.
func ParseID(s string) (Identifier, error) {
	if !idPattern.MatchString(s) {
		return "", WrapError(ErrInvalidInput, "parse id",
			fmt.Errorf("%q must be %d characters from the set %q", s, idLength, idAlphabet))
	}
	return Identifier(s), nil
}

// ParseSuffixedID validates s as a base identifier plus "_" and an
// alphanumeric suffix.
func ParseSuffixedID(s string) (SuffixedID, error) {
	if !suffixedPattern.MatchString(s) {
		return "", WrapError(ErrInvalidInput, "parse suffixed id",
			fmt.Errorf("%q must be a base identifier, an underscore and an alphanumeric suffix", s))
	}
	return SuffixedID(s), nil
}

// generateID is the infallible form used by record identity methods, whose
// parts are always plain strings.
func generateID(parts ...string) Identifier {
	return hashToID(strings.Join(parts, ""))
}

func hashToID(input string) Identifier {
	sum := sha256.Sum256([]byte(input))
	out := make([]byte, idLength)
	for i := 0; i < idLength; i++ {
		out[i] = idAlphabet[int(sum[i])%len(idAlphabet)]
	}
	return Identifier(out)
}

func canonicalString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case Identifier:
		return string(t), nil
	case SuffixedID:
		return string(t), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
