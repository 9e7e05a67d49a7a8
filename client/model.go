package client

import (
	"maps"
	"slices"
	"strings"
	"time"
)

const (
	// defaultMaxHeaderBytes caps the size of a response head.
	defaultMaxHeaderBytes = 64 << 10 // 64KB

	// readSize is the size of a single socket read.
	readSize = 4 << 10 // 4KB

	// defaultHandshakeAttempts bounds the TLS handshake retry loop.
	defaultHandshakeAttempts = 253
)

// Header is a case-preserving multimap of request header fields.
type Header map[string][]string

// values returns the values of every field whose name matches name
// case-insensitively, in sorted key order.
func (h Header) values(name string) []string {
	var vals []string
	for _, k := range slices.Sorted(maps.Keys(h)) {
		if strings.EqualFold(k, name) {
			vals = append(vals, h[k]...)
		}
	}
	return vals
}

// key returns the first field name matching name case-insensitively.
func (h Header) key(name string) (string, bool) {
	if _, ok := h[name]; ok {
		return name, true
	}
	for _, k := range slices.Sorted(maps.Keys(h)) {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}

// Request describes a single HTTP/1.1 exchange.
// The engine never mutates a submitted Request or its Header.
type Request struct {
	Method string `json:"method" validate:"required,httptoken"`
	Host   string `json:"host" validate:"required"`
	Port   int    `json:"port" validate:"gte=1,lte=65535"`

	// Target is the request-target; empty is sent as "/".
	Target string `json:"target"`

	Body   []byte `json:"-"`
	Header Header `json:"-"`

	// Secure sends the request over TLS.
	Secure bool `json:"secure"`

	// Timeout bounds the whole exchange, connect included. Zero means none.
	Timeout time.Duration `json:"timeout" validate:"gte=0"`

	// Priority is recorded on the request's log records and span.
	Priority int `json:"priority"`

	// BodyMaxSize truncates the response body to this many bytes
	// and stops reading once it is reached. Nil means unbounded.
	BodyMaxSize *int64 `json:"bodyMaxSize" validate:"omitnil,gte=0"`
}

// ResponseHead is the parsed status line and header section of a response.
type ResponseHead struct {
	HTTPVersion  string
	StatusCode   int
	ReasonPhrase string

	// Header holds each field under the name as transmitted. A repeated
	// field overwrites the earlier one.
	Header map[string]string
}

// Get returns the value of the named header, matched case-insensitively.
func (h ResponseHead) Get(name string) (string, bool) {
	if v, ok := h.Header[name]; ok {
		return v, true
	}
	for _, k := range slices.Sorted(maps.Keys(h.Header)) {
		if strings.EqualFold(k, name) {
			return h.Header[k], true
		}
	}
	return "", false
}

// Response is a fully read response.
type Response struct {
	ResponseHead

	Body []byte

	// Trailers holds the trailer fields of a chunked body, if any.
	Trailers map[string]string
}

// TimeoutPolicy decides what happens to the connection of a timed-out request.
type TimeoutPolicy int

const (
	// TimeoutClose shuts down and closes the connection.
	TimeoutClose TimeoutPolicy = iota
	// TimeoutAbandon drops the connection without closing or pooling it.
	TimeoutAbandon
)

func (p TimeoutPolicy) String() string {
	switch p {
	case TimeoutClose:
		return "close"
	case TimeoutAbandon:
		return "abandon"
	}
	return "unknown"
}
