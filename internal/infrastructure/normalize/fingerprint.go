package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
)

var errMissingURL = errors.New("raw item has no url")

// Fingerprint derives the stable identity for an item: canonical URL plus a
// hash of the fully whitespace-flattened text. Re-fetches with a different
// timestamp or with cosmetic markup changes produce the same fingerprint.
func Fingerprint(rawURL, text string) string {
	h := sha256.New()
	h.Write([]byte(CanonicalURL(rawURL)))
	h.Write([]byte{'\n'})
	h.Write([]byte(strings.Join(strings.Fields(text), " ")))
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalURL strips the parts of a URL that vary between fetches of the
// same page: fragment, trailing slash, scheme/host casing.
func CanonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
