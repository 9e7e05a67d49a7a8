package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
)

var headEnd = []byte("\r\n\r\n")

// readHead reads from f until a complete response head is buffered and
// parses it. Interim 100 Continue heads are skipped. The bytes read past the
// head are left pending on f.
func readHead(f *feeder, maxBytes int) (ResponseHead, error) {
	var acc []byte
	for {
		if i := bytes.Index(acc, headEnd); i >= 0 {
			head, err := parseHead(acc[:i])
			if err != nil {
				return ResponseHead{}, err
			}

			rest := acc[i+len(headEnd):]
			if head.StatusCode == http.StatusContinue {
				acc = rest
				continue
			}

			f.rest = rest
			return head, nil
		}

		if len(acc) > maxBytes {
			return ResponseHead{}, protocolErr(fmt.Errorf("%w: exceeds %d bytes", ErrHeadTooLarge, maxBytes))
		}

		p, err := f.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ResponseHead{}, protocolErr(ErrPrematureClose)
			}
			return ResponseHead{}, err
		}
		acc = append(acc, p...)
	}
}

// parseHead parses a status line and header fields, without the terminating
// blank line.
func parseHead(b []byte) (ResponseHead, error) {
	lines := strings.Split(string(b), "\r\n")

	head, err := parseStatusLine(lines[0])
	if err != nil {
		return ResponseHead{}, err
	}

	head.Header = make(map[string]string, len(lines)-1)
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok || !httpguts.ValidHeaderFieldName(name) {
			return ResponseHead{}, protocolErr(fmt.Errorf("%w: header line %q", ErrMalformedHead, line))
		}
		head.Header[name] = strings.Trim(value, " \t")
	}

	return head, nil
}

// parseStatusLine parses "HTTP/d.d SP 3DIGIT [SP reason]".
func parseStatusLine(line string) (ResponseHead, error) {
	malformed := protocolErr(fmt.Errorf("%w: status line %q", ErrMalformedHead, line))

	proto, rest, ok := strings.Cut(line, " ")
	if !ok {
		return ResponseHead{}, malformed
	}

	version, ok := strings.CutPrefix(proto, "HTTP/")
	if !ok || len(version) != 3 || !isDigit(version[0]) || version[1] != '.' || !isDigit(version[2]) {
		return ResponseHead{}, malformed
	}

	code, reason, _ := strings.Cut(rest, " ")
	if len(code) != 3 || !isDigit(code[0]) || !isDigit(code[1]) || !isDigit(code[2]) {
		return ResponseHead{}, malformed
	}
	status, _ := strconv.Atoi(code)

	return ResponseHead{
		HTTPVersion:  version,
		StatusCode:   status,
		ReasonPhrase: reason,
	}, nil
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
