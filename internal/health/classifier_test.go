package health

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"syscall"
	"testing"

	"github.com/meetsync/healthwatch/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClassifyRateLimitSignals(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"tagged rate limit", domain.ErrRateLimited},
		{"wrapped rate limit", fmt.Errorf("zoom: %w", domain.ErrRateLimited)},
		{"status 408", domain.NewStatusError(408)},
		{"status 425", domain.NewStatusError(425)},
		{"status 429", domain.NewStatusError(429)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != domain.ClassTransient {
				t.Errorf("Classify(%v) = %s, want transient", tc.err, got)
			}
		})
	}
}

func TestClassifyServerErrors(t *testing.T) {
	for _, code := range []int{500, 502, 503, 504, 599} {
		if got := Classify(domain.NewStatusError(code)); got != domain.ClassTransient {
			t.Errorf("Classify(status %d) = %s, want transient", code, got)
		}
	}
	// Client errors outside the rate-limit set are hard.
	for _, code := range []int{400, 404, 410} {
		if got := Classify(domain.NewStatusError(code)); got != domain.ClassHard {
			t.Errorf("Classify(status %d) = %s, want hard", code, got)
		}
	}
}

func TestClassifyTransportFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"dns failure", &net.DNSError{Err: "no such host", Name: "caldav.example.com"}},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED)},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("network is unreachable")}},
		{"timeout text", errors.New("request timeout exceeded")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != domain.ClassTransient {
				t.Errorf("Classify(%v) = %s, want transient", tc.err, got)
			}
		})
	}
}

func TestClassifyAuthFailuresAreHard(t *testing.T) {
	cases := []error{
		domain.ErrUnauthorized,
		domain.ErrInvalidCredentials,
		domain.ErrTokenExpired,
		fmt.Errorf("google: %w", domain.ErrTokenExpired),
	}
	for _, err := range cases {
		if got := Classify(err); got != domain.ClassHard {
			t.Errorf("Classify(%v) = %s, want hard", err, got)
		}
	}
}

func TestClassifyFreeText(t *testing.T) {
	cases := []struct {
		msg  string
		want domain.ErrorClass
	}{
		{"Rate Limit exceeded for this app", domain.ClassTransient},
		{"you have been rate limited", domain.ClassTransient},
		{"TOO MANY requests from this IP", domain.ClassTransient},
		{"i/o timeout", domain.ClassTransient},
		{"calendar not found", domain.ClassHard},
		{"something exploded", domain.ClassHard},
		{"", domain.ClassHard},
		{"\xff\xfe garbage", domain.ClassHard},
	}
	for _, tc := range cases {
		if got := Classify(errors.New(tc.msg)); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.msg, got, tc.want)
		}
	}
}

func TestClassifyNilAndUnknownDefaultHard(t *testing.T) {
	if got := Classify(nil); got != domain.ClassHard {
		t.Errorf("Classify(nil) = %s, want hard", got)
	}
	if got := Classify(errors.New("entirely novel failure")); got != domain.ClassHard {
		t.Errorf("unknown error = %s, want hard", got)
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	errs := []error{
		domain.ErrRateLimited,
		domain.NewStatusError(503),
		domain.ErrInvalidCredentials,
		errors.New("too many requests"),
		errors.New("boom"),
	}
	for _, err := range errs {
		first := Classify(err)
		for i := 0; i < 3; i++ {
			if got := Classify(err); got != first {
				t.Errorf("Classify(%v) changed between calls: %s then %s", err, first, got)
			}
		}
	}
}

func TestClassifyWithLogMatchesClassify(t *testing.T) {
	key := domain.CheckKey{Type: domain.TypeCalendar, IntegrationID: 7}
	st := NewState()

	errs := []error{
		domain.ErrRateLimited,
		domain.ErrInvalidCredentials,
		errors.New("timeout"),
	}
	for _, err := range errs {
		want := Classify(err)
		if got := ClassifyWithLog(testLogger(), err, st, key); got != want {
			t.Errorf("ClassifyWithLog(%v) = %s, Classify = %s", err, got, want)
		}
	}
}
