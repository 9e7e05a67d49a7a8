package chunked

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// maxLineLength bounds a chunk size line, extensions included.
const maxLineLength = 4 << 10 // 4KB

var (
	// ErrDataAfterLastChunk is returned when bytes follow the terminating chunk and trailers.
	ErrDataAfterLastChunk = errors.New("data after last chunk")
	// ErrMalformedChunk is returned for a size line, chunk delimiter, or trailer that violates the coding.
	ErrMalformedChunk = errors.New("malformed chunk")
)

var crlf = []byte("\r\n")

type state int

const (
	awaitingSizeLine state = iota
	awaitingChunkData
	awaitingTrailers
	done
)

// Decoder incrementally decodes a chunked body.
// The zero value is not usable; create one with [NewDecoder].
type Decoder struct {
	state    state
	buf      []byte
	size     int64
	trailers map[string]string
}

// NewDecoder returns a Decoder awaiting the first chunk size line.
func NewDecoder() *Decoder {
	return &Decoder{state: awaitingSizeLine}
}

// Done reports whether the terminating chunk and trailers have been consumed.
func (d *Decoder) Done() bool {
	return d.state == done
}

// Trailers returns the trailer fields parsed after the last chunk.
// It returns nil until the decoder is done or when the body carried none.
func (d *Decoder) Trailers() map[string]string {
	return d.trailers
}

// Feed appends p to the decoder's buffer and consumes as much of it as
// possible. It returns the payload of every chunk completed by p, in order.
// A zero-length chunk is never returned.
//
// Once the decoder is done, any further byte in p, or in a later call,
// fails with [ErrDataAfterLastChunk].
func (d *Decoder) Feed(p []byte) ([][]byte, error) {
	if d.state == done {
		if len(p) > 0 {
			return nil, ErrDataAfterLastChunk
		}
		return nil, nil
	}

	d.buf = append(d.buf, p...)

	var chunks [][]byte
	for {
		progressed, chunk, err := d.step()
		if err != nil {
			return chunks, err
		}
		if chunk != nil {
			chunks = append(chunks, chunk)
		}
		if !progressed {
			return chunks, nil
		}
		if d.state == done {
			if len(d.buf) > 0 {
				return chunks, ErrDataAfterLastChunk
			}
			return chunks, nil
		}
	}
}

// step advances the state machine by one transition. It reports false when
// the buffer holds too few bytes to make progress.
func (d *Decoder) step() (bool, []byte, error) {
	switch d.state {
	case awaitingSizeLine:
		return d.sizeLine()
	case awaitingChunkData:
		return d.chunkData()
	case awaitingTrailers:
		return d.trailerSection()
	}

	return false, nil, nil
}

func (d *Decoder) sizeLine() (bool, []byte, error) {
	i := bytes.Index(d.buf, crlf)
	if i < 0 {
		if len(d.buf) > maxLineLength {
			return false, nil, fmt.Errorf("%w: size line exceeds %d bytes", ErrMalformedChunk, maxLineLength)
		}
		return false, nil, nil
	}

	size, err := parseSize(d.buf[:i])
	if err != nil {
		return false, nil, err
	}

	d.buf = d.buf[i+len(crlf):]
	d.size = size
	if size == 0 {
		d.state = awaitingTrailers
	} else {
		d.state = awaitingChunkData
	}

	return true, nil, nil
}

func (d *Decoder) chunkData() (bool, []byte, error) {
	if int64(len(d.buf)) < d.size+int64(len(crlf)) {
		return false, nil, nil
	}

	if !bytes.Equal(d.buf[d.size:d.size+2], crlf) {
		return false, nil, fmt.Errorf("%w: missing CRLF after chunk data", ErrMalformedChunk)
	}

	chunk := make([]byte, d.size)
	copy(chunk, d.buf[:d.size])
	d.buf = d.buf[d.size+2:]
	d.state = awaitingSizeLine

	return true, chunk, nil
}

func (d *Decoder) trailerSection() (bool, []byte, error) {
	if len(d.buf) < len(crlf) {
		return false, nil, nil
	}

	if bytes.HasPrefix(d.buf, crlf) {
		d.buf = d.buf[len(crlf):]
		d.state = done
		return true, nil, nil
	}

	end := bytes.Index(d.buf, []byte("\r\n\r\n"))
	if end < 0 {
		if len(d.buf) > maxLineLength {
			return false, nil, fmt.Errorf("%w: trailers exceed %d bytes", ErrMalformedChunk, maxLineLength)
		}
		return false, nil, nil
	}

	trailers := make(map[string]string)
	for line := range strings.SplitSeq(string(d.buf[:end]), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok || !httpguts.ValidHeaderFieldName(name) {
			return false, nil, fmt.Errorf("%w: invalid trailer %q", ErrMalformedChunk, line)
		}
		trailers[name] = strings.TrimSpace(value)
	}

	d.trailers = trailers
	d.buf = d.buf[end+4:]
	d.state = done

	return true, nil, nil
}

// parseSize reads the hex size from a chunk size line, discarding any extension.
func parseSize(line []byte) (int64, error) {
	hex, ext, hasExt := bytes.Cut(line, []byte(";"))
	if hasExt && len(ext) == 0 {
		return 0, fmt.Errorf("%w: empty chunk extension", ErrMalformedChunk)
	}
	if len(hex) == 0 {
		return 0, fmt.Errorf("%w: empty size line", ErrMalformedChunk)
	}

	for _, c := range hex {
		if !isHex(c) {
			return 0, fmt.Errorf("%w: invalid size %q", ErrMalformedChunk, hex)
		}
	}

	size, err := strconv.ParseInt(string(hex), 16, 63)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid size %q", ErrMalformedChunk, hex)
	}

	return size, nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
