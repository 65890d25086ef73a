package smartlinks

import (
	"crypto/rand"
	"math/big"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	slugBaseMaxLen  = 40
	slugSuffixLen   = 5
	slugFallback    = "offer"
	maxSlugAttempts = 8
	base36          = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// Slugify lowercases s, strips diacritics, keeps [a-z0-9-] and caps the
// length at maxLen. An empty result becomes "offer".
func Slugify(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = slugBaseMaxLen
	}
	s = strings.ToLower(strings.TrimSpace(s))

	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = string(buf)

	s = reNonAlnum.ReplaceAllString(s, "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if utf8.RuneCountInString(s) > maxLen {
		s = strings.Trim(string([]rune(s)[:maxLen]), "-")
	}
	if s == "" {
		s = slugFallback
	}
	return s
}

// SlugBase derives the readable part of a slug from the last non-empty path
// segment of targetURL.
func SlugBase(targetURL string) string {
	path := targetURL
	if u, err := url.Parse(targetURL); err == nil && u.Host != "" {
		path = u.Path
	}
	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if seg := strings.TrimSpace(segments[i]); seg != "" {
			if unescaped, err := url.PathUnescape(seg); err == nil {
				seg = unescaped
			}
			return Slugify(seg, slugBaseMaxLen)
		}
	}
	return slugFallback
}

// randomSuffix returns n base36 characters from crypto/rand.
func randomSuffix(n int) (string, error) {
	max := big.NewInt(int64(len(base36)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(base36[v.Int64()])
	}
	return b.String(), nil
}
