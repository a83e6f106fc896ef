package health

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/meetsync/healthwatch/internal/core/domain"
)

// transientPatterns are scanned case-insensitively in free-text error
// messages as the last resort before defaulting to hard.
var transientPatterns = []string{
	"rate limit",
	"rate limited",
	"too many",
	"timeout",
}

// transientStatusCodes are HTTP statuses treated as rate-limit signals.
var transientStatusCodes = map[int]bool{
	408: true,
	425: true,
	429: true,
}

// Classify maps a probe failure to transient or hard. Pure and total: every
// error maps to exactly one class. Anything unrecognized classifies hard so
// it surfaces instead of retrying forever.
func Classify(err error) domain.ErrorClass {
	if err == nil {
		return domain.ClassHard
	}

	// Explicit rate-limit signals.
	if errors.Is(err, domain.ErrRateLimited) {
		return domain.ClassTransient
	}
	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) {
		if transientStatusCodes[statusErr.Code] {
			return domain.ClassTransient
		}
		if statusErr.Code >= 500 {
			return domain.ClassTransient
		}
	}

	// Low-level transport failures.
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ClassTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ClassTransient
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.ClassTransient
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return domain.ClassTransient
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return domain.ClassTransient
	}

	// Authentication failures require intervention.
	if errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrInvalidCredentials) ||
		errors.Is(err, domain.ErrTokenExpired) {
		return domain.ClassHard
	}

	return classifyMessage(err.Error())
}

// classifyMessage scans free text for transient markers. Garbage that is not
// valid UTF-8 classifies hard.
func classifyMessage(msg string) domain.ErrorClass {
	if !utf8.ValidString(msg) {
		return domain.ClassHard
	}
	lower := strings.ToLower(msg)
	for _, p := range transientPatterns {
		if strings.Contains(lower, p) {
			return domain.ClassTransient
		}
	}
	return domain.ClassHard
}

// ClassifyWithLog classifies a failure and logs the operational consequence:
// the grown backoff for transient failures, the new consecutive failure count
// for hard ones. Logging never changes the result.
func ClassifyWithLog(log *slog.Logger, err error, st domain.HealthState, key domain.CheckKey) domain.ErrorClass {
	class := Classify(err)

	switch class {
	case domain.ClassTransient:
		log.Warn("transient integration failure",
			"integration", key.String(),
			"error", err,
			"next_backoff", NextBackoff(st.Backoff),
		)
	default:
		log.Warn("hard integration failure",
			"integration", key.String(),
			"error", err,
			"failures", st.Failures+1,
		)
	}

	return class
}
