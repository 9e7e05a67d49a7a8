package client

import (
	"bytes"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// encodeRequest serializes the request head and body. The caller's header
// is left untouched: Host is added when missing, Content-Length is set for
// a non-empty body, and Transfer-Encoding is never sent.
func encodeRequest(req Request) []byte {
	header := make(Header, len(req.Header)+2)
	for name, values := range req.Header {
		if strings.EqualFold(name, "Transfer-Encoding") {
			continue
		}
		if len(req.Body) > 0 && strings.EqualFold(name, "Content-Length") {
			continue
		}
		header[name] = values
	}

	if len(req.Body) > 0 {
		header["Content-Length"] = []string{strconv.Itoa(len(req.Body))}
	}

	hostKey, ok := header.key("Host")
	if !ok {
		hostKey = "Host"
		header[hostKey] = []string{req.Host}
	}

	target := req.Target
	if target == "" {
		target = "/"
	}

	var b bytes.Buffer
	b.WriteString(req.Method)
	b.WriteByte(' ')
	b.WriteString(target)
	b.WriteString(" HTTP/1.1\r\n")

	writeField(&b, hostKey, header[hostKey])
	for _, name := range slices.Sorted(maps.Keys(header)) {
		if name == hostKey {
			continue
		}
		writeField(&b, name, header[name])
	}
	b.WriteString("\r\n")
	b.Write(req.Body)

	return b.Bytes()
}

func writeField(b *bytes.Buffer, name string, values []string) {
	for _, v := range values {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}
}
