package chunked_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/adamwoolhether/httpool/client/chunked"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// feed pushes each fragment through a fresh decoder and collects the payload.
func feed(t *testing.T, fragments ...string) ([]byte, *chunked.Decoder, error) {
	t.Helper()

	dec := chunked.NewDecoder()
	var body []byte
	for _, frag := range fragments {
		chunks, err := dec.Feed([]byte(frag))
		for _, c := range chunks {
			if len(c) == 0 {
				t.Fatal("decoder yielded a zero-length chunk")
			}
			body = append(body, c...)
		}
		if err != nil {
			return body, dec, err
		}
	}

	return body, dec, nil
}

func TestDecoder_Feed(t *testing.T) {
	testCases := []struct {
		name      string
		fragments []string
		expBody   string
		expDone   bool
		expTrail  map[string]string
	}{
		{
			name:      "single chunk, single feed",
			fragments: []string{"5\r\nhello\r\n0\r\n\r\n"},
			expBody:   "hello",
			expDone:   true,
		},
		{
			name:      "multiple chunks",
			fragments: []string{"5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"},
			expBody:   "hello world",
			expDone:   true,
		},
		{
			name:      "uppercase hex size",
			fragments: []string{"1A\r\nabcdefghijklmnopqrstuvwxyz\r\n0\r\n\r\n"},
			expBody:   "abcdefghijklmnopqrstuvwxyz",
			expDone:   true,
		},
		{
			name:      "extension ignored",
			fragments: []string{"5;name=value\r\nhello\r\n0;last\r\n\r\n"},
			expBody:   "hello",
			expDone:   true,
		},
		{
			name:      "split across feeds",
			fragments: []string{"5\r", "\nhel", "lo\r", "\n0\r\n", "\r", "\n"},
			expBody:   "hello",
			expDone:   true,
		},
		{
			name:      "trailers",
			fragments: []string{"3\r\nabc\r\n0\r\nX-Checksum: 1234\r\nX-Other:  v \r\n\r\n"},
			expBody:   "abc",
			expDone:   true,
			expTrail:  map[string]string{"X-Checksum": "1234", "X-Other": "v"},
		},
		{
			name:      "incomplete",
			fragments: []string{"5\r\nhel"},
			expBody:   "",
			expDone:   false,
		},
		{
			name:      "awaiting trailers",
			fragments: []string{"0\r\n"},
			expBody:   "",
			expDone:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, dec, err := feed(t, tc.fragments...)
			if err != nil {
				t.Fatalf("feed: %v", err)
			}

			if diff := cmp.Diff(tc.expBody, string(body)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}

			if dec.Done() != tc.expDone {
				t.Errorf("exp done %t, got %t", tc.expDone, dec.Done())
			}

			if diff := cmp.Diff(tc.expTrail, dec.Trailers()); diff != "" {
				t.Errorf("trailers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecoder_ByteByByte(t *testing.T) {
	encoded := "1a\r\nabcdefghijklmnopqrstuvwxyz\r\n10\r\n1234567890abcdef\r\n0\r\nTrailer: yes\r\n\r\n"

	dec := chunked.NewDecoder()
	var chunks [][]byte
	for i := range len(encoded) {
		got, err := dec.Feed([]byte{encoded[i]})
		if err != nil {
			t.Fatalf("feed byte %d: %v", i, err)
		}
		chunks = append(chunks, got...)
	}

	exp := [][]byte{[]byte("abcdefghijklmnopqrstuvwxyz"), []byte("1234567890abcdef")}
	if diff := cmp.Diff(exp, chunks); diff != "" {
		t.Errorf("chunks mismatch (-want +got):\n%s", diff)
	}

	if !dec.Done() {
		t.Error("exp decoder done")
	}
}

func TestDecoder_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		fragments []string
		expErr    error
		expBody   string
	}{
		{
			name:      "data after last chunk, same feed",
			fragments: []string{"3\r\nabc\r\n0\r\n\r\nxyz"},
			expErr:    chunked.ErrDataAfterLastChunk,
			expBody:   "abc",
		},
		{
			name:      "data after last chunk, later feed",
			fragments: []string{"0\r\n\r\n", "x"},
			expErr:    chunked.ErrDataAfterLastChunk,
		},
		{
			name:      "data after trailers",
			fragments: []string{"0\r\nA: b\r\n\r\nHTTP/1.1"},
			expErr:    chunked.ErrDataAfterLastChunk,
		},
		{
			name:      "non-hex size",
			fragments: []string{"zz\r\n"},
			expErr:    chunked.ErrMalformedChunk,
		},
		{
			name:      "signed size",
			fragments: []string{"+5\r\nhello\r\n"},
			expErr:    chunked.ErrMalformedChunk,
		},
		{
			name:      "size overflow",
			fragments: []string{"fffffffffffffffff\r\n"},
			expErr:    chunked.ErrMalformedChunk,
		},
		{
			name:      "missing CRLF after data",
			fragments: []string{"3\r\nabcXY"},
			expErr:    chunked.ErrMalformedChunk,
		},
		{
			name:      "invalid trailer",
			fragments: []string{"0\r\nnot a header\r\n\r\n"},
			expErr:    chunked.ErrMalformedChunk,
		},
		{
			name:      "size line too long",
			fragments: []string{"1;" + string(bytes.Repeat([]byte("e"), 5<<10))},
			expErr:    chunked.ErrMalformedChunk,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, _, err := feed(t, tc.fragments...)
			if !errors.Is(err, tc.expErr) {
				t.Fatalf("exp err %v; got: %v", tc.expErr, err)
			}

			if diff := cmp.Diff(tc.expBody, string(body)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecoder_FeedAfterDoneWithNothing(t *testing.T) {
	dec := chunked.NewDecoder()
	if _, err := dec.Feed([]byte("0\r\n\r\n")); err != nil {
		t.Fatalf("feed: %v", err)
	}

	chunks, err := dec.Feed(nil)
	if err != nil {
		t.Fatalf("exp nil err for empty feed, got: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("exp no chunks, got %d", len(chunks))
	}
}
