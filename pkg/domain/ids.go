package domain

import (
	"github.com/google/uuid"

	dErrors "isolationd/pkg/domain-errors"
)

// SubjectID identifies the person whose isolation evidence is held. Each
// subject has exactly one logical owner; the engine never merges subjects.
type SubjectID uuid.UUID

func (s SubjectID) String() string {
	return uuid.UUID(s).String()
}

func (s SubjectID) IsNil() bool {
	return uuid.UUID(s) == uuid.Nil
}

// NewSubjectID returns a random subject identifier.
func NewSubjectID() SubjectID {
	return SubjectID(uuid.New())
}

// ParseSubjectID validates a subject identifier at a trust boundary.
func ParseSubjectID(s string) (SubjectID, error) {
	if s == "" {
		return SubjectID{}, dErrors.New(dErrors.CodeInvalidInput, "subject id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return SubjectID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid subject id format")
	}
	if parsed == uuid.Nil {
		return SubjectID{}, dErrors.New(dErrors.CodeInvalidInput, "subject id cannot be nil")
	}
	return SubjectID(parsed), nil
}
