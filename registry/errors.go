package registry

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when the registry answered with anything but 200 OK
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode extracts the HTTP status of a rejected transfer. ok is false for
// transport level failures.
func StatusCode(err error) (code int, ok bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}
