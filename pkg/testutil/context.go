package testutil

import (
	"net/http"
	"time"

	id "isolationd/pkg/domain"
	"isolationd/pkg/requestcontext"
)

// WithSubjectID adds a subject ID to the request context, as the router would
// after parsing the path. Invalid IDs are left out.
func WithSubjectID(req *http.Request, subjectID string) *http.Request {
	parsed, err := id.ParseSubjectID(subjectID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithSubjectID(req.Context(), parsed))
}

// WithRequestTime pins the request clock, as the request-time middleware would.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
