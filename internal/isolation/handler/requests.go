package handler

import (
	"strings"

	"isolationd/internal/isolation/acknowledgement"
	"isolationd/internal/isolation/models"
	dErrors "isolationd/pkg/domain-errors"
	"isolationd/pkg/gregorian"
)

// AcknowledgeRequest is the body of POST .../isolation/acknowledgements and
// .../isolation/test-results/acknowledgements.
type AcknowledgeRequest struct {
	Token string `json:"token"`

	parsedToken acknowledgement.Token
}

func (r *AcknowledgeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	token, err := acknowledgement.ParseToken(strings.TrimSpace(r.Token))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "token must be a UUID")
	}
	r.parsedToken = token
	return nil
}

func (r *AcknowledgeRequest) ParsedToken() acknowledgement.Token {
	return r.parsedToken
}

// SymptomsRequest is the body of POST .../isolation/symptoms. A missing
// onset day means the subject could not remember it.
type SymptomsRequest struct {
	OnsetDay *gregorian.Day `json:"onsetDay,omitempty"`
}

func (r *SymptomsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.OnsetDay != nil && r.OnsetDay.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "onsetDay cannot be empty")
	}
	return nil
}

// OnsetDayRequest is the body of POST .../isolation/symptoms/onset.
type OnsetDayRequest struct {
	OnsetDay gregorian.Day `json:"onsetDay"`
}

func (r *OnsetDayRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.OnsetDay.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "onsetDay is required")
	}
	return nil
}

// AskForSymptomsRequest is the body of PUT .../isolation/symptoms/ask.
type AskForSymptomsRequest struct {
	Ask bool `json:"ask"`
}

func (r *AskForSymptomsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

// TestResultRequest is the body of POST .../isolation/test-results.
type TestResultRequest struct {
	models.TestResult
}

func (r *TestResultRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return r.TestResult.Validate()
}

// ContactCaseRequest is the body of POST .../isolation/contact-cases.
type ContactCaseRequest struct {
	models.RiskInfo
}

func (r *ContactCaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return r.RiskInfo.Validate()
}
