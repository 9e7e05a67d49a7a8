package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/adamwoolhether/httpool/client/chunked"
)

type strategy int

const (
	noBody strategy = iota
	contentLength
	chunkedBody
	closeDelimited
)

func (s strategy) String() string {
	switch s {
	case noBody:
		return "no-body"
	case contentLength:
		return "content-length"
	case chunkedBody:
		return "chunked"
	case closeDelimited:
		return "close-delimited"
	}
	return "unknown"
}

// bodyPlan is how a response body is framed and what happens to the
// connection afterwards.
type bodyPlan struct {
	strategy strategy
	length   int64
	doClose  bool
}

type bodyInput struct {
	method    string
	reqHeader Header
	head      ResponseHead
	// bounded is set when a timeout or body cap applies to the request.
	bounded bool
}

// selectBody decides the body framing of a response and whether its
// connection must be closed rather than pooled.
func selectBody(in bodyInput) (bodyPlan, error) {
	head := in.head
	if head.StatusCode >= 100 && head.StatusCode < 200 {
		return bodyPlan{}, protocolErr(Err1XXReceived)
	}

	respConn, _ := head.Get("Connection")
	doClose := in.bounded ||
		httpguts.HeaderValuesContainsToken(in.reqHeader.values("Connection"), "close") ||
		httpguts.HeaderValuesContainsToken([]string{respConn}, "close")

	length, hasLength, err := parseContentLength(head)
	if err != nil {
		return bodyPlan{}, err
	}

	if head.HTTPVersion != "1.1" {
		switch {
		case bodyDisallowed(in.method, head.StatusCode):
			return bodyPlan{strategy: noBody, doClose: true}, nil
		case !hasLength:
			return bodyPlan{strategy: closeDelimited, doClose: true}, nil
		}
		return bodyPlan{strategy: contentLength, length: length, doClose: true}, nil
	}

	switch {
	case bodyDisallowed(in.method, head.StatusCode):
		return bodyPlan{strategy: noBody, doClose: doClose}, nil
	case isChunked(head):
		return bodyPlan{strategy: chunkedBody, doClose: doClose}, nil
	case hasLength:
		return bodyPlan{strategy: contentLength, length: length, doClose: doClose}, nil
	}

	return bodyPlan{strategy: closeDelimited, doClose: true}, nil
}

func bodyDisallowed(method string, status int) bool {
	return method == http.MethodHead || status == http.StatusNoContent || status == http.StatusNotModified
}

// isChunked reports whether the final transfer coding is chunked.
func isChunked(head ResponseHead) bool {
	te, ok := head.Get("Transfer-Encoding")
	if !ok {
		return false
	}

	codings := strings.Split(te, ",")
	return strings.EqualFold(strings.TrimSpace(codings[len(codings)-1]), "chunked")
}

func parseContentLength(head ResponseHead) (int64, bool, error) {
	v, ok := head.Get("Content-Length")
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return 0, false, nil
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false, protocolErr(fmt.Errorf("%w: %q", ErrInvalidContentLength, v))
	}

	return n, true, nil
}

// sink accumulates a body up to an optional cap.
type sink struct {
	data  []byte
	limit int64
}

func newSink(limit *int64) *sink {
	s := sink{limit: -1}
	if limit != nil {
		s.limit = *limit
	}
	return &s
}

func (s *sink) full() bool {
	return s.limit >= 0 && int64(len(s.data)) >= s.limit
}

func (s *sink) write(p []byte) {
	if s.limit >= 0 {
		room := s.limit - int64(len(s.data))
		if room <= 0 {
			return
		}
		if int64(len(p)) > room {
			p = p[:room]
		}
	}
	s.data = append(s.data, p...)
}

// readBody reads the body framed by plan. Once the cap is reached the
// framing is no longer checked.
func readBody(f *feeder, plan bodyPlan, limit *int64) ([]byte, map[string]string, error) {
	s := newSink(limit)

	switch plan.strategy {
	case noBody:
		if f.pending() {
			return nil, nil, protocolErr(ErrBodyNotEmpty)
		}
		return nil, nil, nil

	case contentLength:
		body, err := readContentLength(f, plan.length, s)
		return body, nil, err

	case chunkedBody:
		return readChunked(f, s)

	case closeDelimited:
		body, err := readUntilClose(f, s)
		return body, nil, err
	}

	return nil, nil, fmt.Errorf("unknown body strategy %d", plan.strategy)
}

func readContentLength(f *feeder, length int64, s *sink) ([]byte, error) {
	remaining := length
	for !s.full() {
		if remaining == 0 && !f.pending() {
			return s.data, nil
		}

		p, err := f.next()
		if err != nil {
			return nil, eofAs(err, ErrPrematureClose)
		}

		s.write(p)
		remaining -= int64(len(p))
		if remaining < 0 && !s.full() {
			return nil, protocolErr(ErrExcessBytes)
		}
	}

	return s.data, nil
}

func readChunked(f *feeder, s *sink) ([]byte, map[string]string, error) {
	dec := chunked.NewDecoder()
	for !s.full() && !dec.Done() {
		p, err := f.next()
		if err != nil {
			return nil, nil, eofAs(err, ErrPrematureClose)
		}

		chunks, err := dec.Feed(p)
		for _, c := range chunks {
			s.write(c)
		}
		if err != nil && !s.full() {
			return nil, nil, protocolErr(err)
		}
	}

	return s.data, dec.Trailers(), nil
}

func readUntilClose(f *feeder, s *sink) ([]byte, error) {
	for !s.full() {
		p, err := f.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		s.write(p)
	}

	return s.data, nil
}

// eofAs turns an end of stream into a protocol error with the given cause.
func eofAs(err, cause error) error {
	if errors.Is(err, io.EOF) {
		return protocolErr(cause)
	}
	return err
}
