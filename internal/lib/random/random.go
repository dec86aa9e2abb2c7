package random

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewUsername generates a random username with a "user-" prefix,
// assigned at registration instead of being user-supplied.
func NewUsername() string {
	return "user-" + randomString(10)
}

// NewSlug builds a URL-friendly slug from a title and appends random
// characters so two posts with the same title get distinct slugs.
func NewSlug(title string) string {
	var b strings.Builder

	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return randomString(10)
	}

	return slug + "-" + randomString(10)
}

func randomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand only fails when the OS entropy source is
			// broken, at which point nothing else works either.
			panic(err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}
