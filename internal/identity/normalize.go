// Package identity canonicalizes channel-specific contact identifiers so
// the same person reached over different channels maps to one contact key.
package identity

import (
	"strings"

	"github.com/soyeahso/switchboard/internal/domain"
)

// Normalize maps a raw channel identifier to its canonical form. It is
// deterministic and side-effect-free: two processes normalizing the same raw
// value always produce the same key.
//
//   - Phone channels (WhatsApp, SMS): keep a leading "+" and digits, prepend
//     "+" when absent. No country-code inference; ambiguous short numbers
//     normalize literally.
//   - Username channels (Instagram): strip a leading "@", lower-case, trim.
//   - Opaque-ID channels (Facebook): trim only, platform-scoped IDs are not
//     human-formatted.
func Normalize(channel domain.ChannelType, raw string) string {
	switch channel {
	case domain.ChannelWhatsApp, domain.ChannelSMS:
		return normalizePhone(raw)
	case domain.ChannelInstagram:
		return normalizeUsername(raw)
	default:
		return strings.TrimSpace(raw)
	}
}

func normalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return s
	}
	if !strings.HasPrefix(s, "+") {
		s = "+" + s
	}
	return s
}

func normalizeUsername(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "@")
	return strings.ToLower(s)
}
