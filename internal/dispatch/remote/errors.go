package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when the dispatch service answers with a non-2xx status.
type StatusError struct {
	Code int
	// Message is the trimmed response text, or the status text when the body is empty.
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed (%d): %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the dispatch service.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Message returns the text a user should see for err: the response text for
// a StatusError, the error string otherwise.
func Message(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
