package records

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// MaxFilenameBytes is the longest filename most filesystems accept
const MaxFilenameBytes = 255

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// FilenameFromURL derives the destination filename of a direct image link.
// The link is percent-decoded, any "?" becomes "_" so an embedded query
// stays part of the name, and the decoded path basename is sanitized.
// Links that sanitize to nothing get a name derived from their hash.
func FilenameFromURL(link string) string {
	decoded := unescape(link)
	decoded = strings.ReplaceAll(decoded, "?", "_")

	name := SanitizeFilename(unescape(basename(urlPath(decoded))))
	if name == "" {
		sum := sha256.Sum256([]byte(link))
		return "image-" + hex.EncodeToString(sum[:8])
	}
	return name
}

// SanitizeFilename makes name valid on common filesystems. Characters
// illegal on Windows and control characters are removed, trailing dots and
// spaces are stripped, device names get a "_" suffix and the result is cut
// to MaxFilenameBytes keeping the extension.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == utf8.RuneError || r < 0x20 || r == 0x7f {
			continue
		}
		if strings.ContainsRune(`\/:*?"<>|`, r) {
			continue
		}
		b.WriteRune(r)
	}

	clean := strings.TrimSpace(b.String())
	clean = strings.TrimRight(clean, ". ")
	if clean == "" {
		return ""
	}

	stem, ext := splitExt(clean)
	if reservedNames[strings.ToUpper(stem)] {
		clean = stem + "_" + ext
	}

	return truncate(clean, MaxFilenameBytes)
}

// unescape percent-decodes every valid %XX sequence of s. Malformed
// sequences are kept as they are.
func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// urlPath strips the scheme and authority of an absolute or
// protocol-relative link.
func urlPath(link string) string {
	rest := link
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	} else if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
	} else {
		return rest
	}

	if i := strings.Index(rest, "/"); i >= 0 {
		return rest[i:]
	}
	return ""
}

func basename(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func splitExt(name string) (string, string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// truncate cuts name to max bytes on a rune boundary, shortening the stem
// before the extension.
func truncate(name string, max int) string {
	if len(name) <= max {
		return name
	}

	stem, ext := splitExt(name)
	if len(ext) >= max {
		stem, ext = name, ""
	}

	limit := max - len(ext)
	cut := 0
	for i := range stem {
		if i > limit {
			break
		}
		cut = i
	}
	if len(stem) <= limit {
		cut = len(stem)
	}
	return stem[:cut] + ext
}
