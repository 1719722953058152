// Package dedup computes content fingerprints for catalog documents and
// reconciles duplicates that predate fingerprint enforcement.
//
// A fingerprint is a deterministic hash over normalized identifying fields:
// two documents with the same fingerprint are considered the same
// real-world document. Normalization is stable across runs so the same
// logical document always collapses to one fingerprint, regardless of
// trivial formatting differences in the input.
package dedup

import (
	"encoding/binary"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/plandok"
)

// Fingerprint computes the content fingerprint for a document from its
// identifying fields. It is a pure function: no I/O, no side effects.
func Fingerprint(title, rawURL, category string) string {
	normURL, err := NormalizeURL(rawURL)
	if err != nil {
		// An unparseable URL still fingerprints deterministically;
		// validation rejects it before it can reach storage.
		normURL = strings.TrimSpace(strings.ToLower(rawURL))
	}

	h := xxhash.New()
	_, _ = h.WriteString(normalizeText(title))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(normURL)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(normalizeToken(category))

	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, h.Sum64())
	return hex.EncodeToString(b)
}

// NormalizeURL returns a canonical form of an absolute http(s) URL:
// lowercased scheme and host, default port stripped, trailing slash
// removed from the path, fragment dropped. Returns EINVALID for URLs
// that cannot be parsed or are not absolute.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", plandok.Errorf(plandok.EINVALID, "invalid URL %q", raw)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", plandok.Errorf(plandok.EINVALID, "URL %q must be absolute", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}

// normalizeText case-folds and collapses runs of whitespace to a single
// space, trimming the ends.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// normalizeToken canonicalizes a single enumeration token.
func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
