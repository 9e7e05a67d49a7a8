// Package chunked decodes HTTP/1.1 chunked transfer coding.
//
// A [Decoder] is a pure state machine: it performs no I/O and accepts the
// encoded body in arbitrarily sized fragments via [Decoder.Feed], returning
// the chunk payloads each fragment completes.
//
//	dec := chunked.NewDecoder()
//	for !dec.Done() {
//		n, err := conn.Read(buf)
//		...
//		chunks, err := dec.Feed(buf[:n])
//		if err != nil { ... }
//		for _, chunk := range chunks {
//			body = append(body, chunk...)
//		}
//	}
//
// Chunk extensions are ignored. Trailers are parsed and exposed through
// [Decoder.Trailers].
package chunked
