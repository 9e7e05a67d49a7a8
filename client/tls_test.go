package client

import (
	"context"
	"crypto/tls"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeHandshaker struct {
	results []error
	calls   int
}

func (f *fakeHandshaker) HandshakeContext(context.Context) error {
	f.calls++
	if len(f.results) == 0 {
		return errWantRead
	}
	err := f.results[0]
	f.results = f.results[1:]
	return err
}

type fakeReadiness struct {
	reads, writes int
	err           error
}

func (f *fakeReadiness) waitReadable() error {
	f.reads++
	return f.err
}

func (f *fakeReadiness) waitWritable() error {
	f.writes++
	return f.err
}

func TestDriveHandshake(t *testing.T) {
	errBoom := errors.New("bad certificate")

	testCases := []struct {
		name      string
		results   []error
		waitErr   error
		attempts  int
		expErr    error
		expCalls  int
		expReads  int
		expWrites int
	}{
		{
			name:     "immediate",
			results:  []error{nil},
			attempts: defaultHandshakeAttempts,
			expCalls: 1,
		},
		{
			name:      "waits for readiness",
			results:   []error{errWantRead, errWantWrite, errWantRead, nil},
			attempts:  defaultHandshakeAttempts,
			expCalls:  4,
			expReads:  2,
			expWrites: 1,
		},
		{
			name:     "fatal error",
			results:  []error{errWantRead, errBoom},
			attempts: defaultHandshakeAttempts,
			expErr:   errBoom,
			expCalls: 2,
			expReads: 1,
		},
		{
			name:     "attempts exhausted",
			attempts: defaultHandshakeAttempts,
			expErr:   ErrHandshakeFailed,
			expCalls: defaultHandshakeAttempts,
			expReads: defaultHandshakeAttempts,
		},
		{
			name:     "readiness failure",
			results:  []error{errWantRead},
			waitErr:  errBoom,
			attempts: 3,
			expErr:   errBoom,
			expCalls: 1,
			expReads: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hs := &fakeHandshaker{results: tc.results}
			ready := &fakeReadiness{err: tc.waitErr}

			err := driveHandshake(t.Context(), hs, ready, tc.attempts)
			if !errors.Is(err, tc.expErr) {
				t.Fatalf("exp err %v; got: %v", tc.expErr, err)
			}
			if tc.expErr == errBoom && tc.waitErr == nil && !errors.Is(err, ErrHandshakeFailed) {
				t.Errorf("exp fatal handshake error wrapped with ErrHandshakeFailed, got: %v", err)
			}

			got := []int{hs.calls, ready.reads, ready.writes}
			if diff := cmp.Diff([]int{tc.expCalls, tc.expReads, tc.expWrites}, got); diff != "" {
				t.Errorf("calls/reads/writes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTLSConfigFor(t *testing.T) {
	cfg := tlsConfigFor(nil, "example.com")
	if cfg.ServerName != "example.com" {
		t.Errorf("exp ServerName from host, got %q", cfg.ServerName)
	}
	if diff := cmp.Diff([]string{"http/1.1"}, cfg.NextProtos); diff != "" {
		t.Errorf("next protos mismatch (-want +got):\n%s", diff)
	}

	base := &tls.Config{ServerName: "override.example", NextProtos: []string{"x"}}
	cfg = tlsConfigFor(base, "example.com")
	if cfg.ServerName != "override.example" || cfg == base {
		t.Errorf("exp a clone keeping the configured ServerName, got %q", cfg.ServerName)
	}
}
