package services

import (
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/wastewatch/internal/common"
	"github.com/dmitrijs2005/wastewatch/internal/server/auth"
)

const (
	MaxNameLength     = 100
	MinPasswordLength = 6
)

// ValidationError lists the offending input fields with a human-readable
// reason for each. It matches common.ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return common.ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return common.ErrValidation }

type fieldErrors map[string]string

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(f fieldErrors, email string) {
	if email == "" {
		f["email"] = "is required"
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		f["email"] = "is not a valid email address"
	}
}

func validateSignup(in SignupInput) error {
	f := fieldErrors{}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		f["name"] = "is required"
	case utf8.RuneCountInString(name) > MaxNameLength:
		f["name"] = "is too long"
	}

	checkEmail(f, NormalizeEmail(in.Email))

	switch {
	case in.Password == "":
		f["password"] = "is required"
	case utf8.RuneCountInString(in.Password) < MinPasswordLength:
		f["password"] = "must be at least 6 characters"
	case len(in.Password) > auth.MaxPasswordBytes:
		f["password"] = "must be at most 72 bytes"
	}

	return f.err()
}

func validateSignin(in SigninInput) error {
	f := fieldErrors{}
	checkEmail(f, NormalizeEmail(in.Email))
	if in.Password == "" {
		f["password"] = "is required"
	}
	return f.err()
}
