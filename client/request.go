package client

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/adamwoolhether/httpool/client/validate"
)

// NewRequest instantiates a [Request] with the provided information and
// validates it.
func NewRequest(method, host string, port int, target string, opts ...RequestOption) (Request, error) {
	req := Request{
		Method: method,
		Host:   host,
		Port:   port,
		Target: target,
	}

	for _, opt := range opts {
		if err := opt(&req); err != nil {
			return Request{}, err
		}
	}

	if err := req.validate(); err != nil {
		return Request{}, err
	}

	return req, nil
}

// validate rejects requests the engine cannot put on the wire.
func (r Request) validate() error {
	if strings.EqualFold(r.Method, http.MethodConnect) {
		return fmt.Errorf("%w: %s", ErrUnsupportedMethod, r.Method)
	}

	if err := validate.Check(r); err != nil {
		return err
	}

	var fields validate.FieldErrors
	if strings.ContainsAny(r.Target, " \r\n") {
		fields = append(fields, validate.FieldError{Field: "target", Err: "target must not contain whitespace"})
	}
	for name, values := range r.Header {
		if !httpguts.ValidHeaderFieldName(name) {
			fields = append(fields, validate.FieldError{Field: "header", Err: fmt.Sprintf("invalid header name %q", name)})
			continue
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				fields = append(fields, validate.FieldError{Field: "header", Err: fmt.Sprintf("invalid value for header %q", name)})
			}
		}
	}

	if len(fields) > 0 {
		return fields
	}

	return nil
}
