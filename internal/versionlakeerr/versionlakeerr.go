// Package versionlakeerr defines the small interface core errors
// implement so the CLI dispatcher can render a uniform one-line
// "code: message" regardless of which package raised the error.
package versionlakeerr

// Error is implemented by every error type the core packages return
// that carries a stable classification code.
type Error interface {
	error
	Code() string
	Unwrap() error
}

// Render formats err as "code: message" if it implements Error, or
// falls back to err.Error() otherwise.
func Render(err error) string {
	if err == nil {
		return ""
	}
	if coded, ok := err.(Error); ok {
		return coded.Code() + ": " + coded.Error()
	}
	return err.Error()
}
