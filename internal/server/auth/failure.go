package auth

import "fmt"

// Code is the machine-readable reason a token was rejected.
type Code string

const (
	CodeNoToken      Code = "NO_TOKEN"
	CodeInvalidToken Code = "INVALID_TOKEN"
	CodeTokenExpired Code = "TOKEN_EXPIRED"
	CodeWrongType    Code = "WRONG_TYPE"
	CodeTokenRevoked Code = "TOKEN_REVOKED"
)

// Failure is returned by the validator for every rejected token. Two
// failures match under errors.Is when their codes are equal.
type Failure struct {
	Code Code
	Err  error
}

var (
	ErrNoToken      = &Failure{Code: CodeNoToken}
	ErrInvalidToken = &Failure{Code: CodeInvalidToken}
	ErrTokenExpired = &Failure{Code: CodeTokenExpired}
	ErrWrongType    = &Failure{Code: CodeWrongType}
	ErrTokenRevoked = &Failure{Code: CodeTokenRevoked}
)

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Code, f.Err)
	}
	return string(f.Code)
}

func (f *Failure) Unwrap() error { return f.Err }

func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	return ok && t.Code == f.Code
}

func fail(code Code, err error) *Failure {
	return &Failure{Code: code, Err: err}
}
