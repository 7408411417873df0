package routing

import "strings"

// retryablePatterns are matched case-insensitively against send error text.
// Deliberately conservative: an unrecognized error is terminal, so permanent
// failures like bad-request validation never loop forever. Matching on
// message text is fragile to vendor wording changes, but adapters do not
// classify their own errors, so this stays the single classification point.
var retryablePatterns = []string{
	"rate limit",
	"timeout",
	"network",
	"429",
	"500",
	"502",
	"503",
}

// IsRetryable reports whether a send error looks transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
