package validate_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/adamwoolhether/httpool/client/validate"
)

type limits struct {
	Name  string `json:"name" validate:"required"`
	Size  int    `json:"size" validate:"gte=0"`
	Inner string `json:"-" validate:"omitempty,hostname"`
	Verb  string `json:"verb" validate:"omitempty,httptoken"`
}

func TestCheck_Valid(t *testing.T) {
	v := limits{Name: "pool", Size: 3}
	if err := validate.Check(&v); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestCheck_MissingRequired(t *testing.T) {
	v := limits{Size: 1}
	err := validate.Check(&v)
	if err == nil {
		t.Fatal("expected error for missing required field")
	}

	fe := validate.GetFieldErrors(err)
	if fe == nil {
		t.Fatal("expected FieldErrors")
	}

	fields := fe.Fields()
	if fields["name"] != "This field is required" {
		t.Fatalf("name error = %q, want %q", fields["name"], "This field is required")
	}
}

func TestCheck_Translated(t *testing.T) {
	v := limits{Name: "pool", Size: -1}
	err := validate.Check(&v)

	fe := validate.GetFieldErrors(err)
	if fe == nil {
		t.Fatalf("expected FieldErrors, got: %v", err)
	}

	msg, ok := fe.Fields()["size"]
	if !ok {
		t.Fatalf("expected 'size' field error, got %v", fe.Fields())
	}
	if msg != "size must be 0 or greater" {
		t.Errorf("size error = %q", msg)
	}
}

func TestGetFieldErrors_Wrapped(t *testing.T) {
	err := fmt.Errorf("building pool: %w", validate.FieldErrors{{Field: "size", Err: "bad"}})

	fe := validate.GetFieldErrors(err)
	if len(fe) != 1 || fe[0].Field != "size" {
		t.Fatalf("unexpected field errors: %v", fe)
	}

	if validate.GetFieldErrors(errors.New("plain")) != nil {
		t.Error("exp nil FieldErrors for unrelated error")
	}
}

func TestCheck_HTTPToken(t *testing.T) {
	testCases := []struct {
		verb   string
		expErr bool
	}{
		{verb: "GET"},
		{verb: "M-SEARCH"},
		{verb: "BAD VERB", expErr: true},
		{verb: "GET\r\n", expErr: true},
		{verb: "(GET)", expErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.verb, func(t *testing.T) {
			err := validate.Check(limits{Name: "pool", Verb: tc.verb})
			if !tc.expErr {
				if err != nil {
					t.Fatalf("exp no error, got: %v", err)
				}
				return
			}

			msg := validate.GetFieldErrors(err).Fields()["verb"]
			if msg != "verb must be an HTTP token" {
				t.Errorf("verb error = %q", msg)
			}
		})
	}
}
