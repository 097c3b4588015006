// Package ports defines the side-effect interfaces the isolation service
// consumes. Implementations live in observability and in the host process.
package ports

import (
	"context"
	"log/slog"
	"time"

	"isolationd/pkg/attrs"
	id "isolationd/pkg/domain"
	"isolationd/pkg/requestcontext"
)

// Signpost names. They are stable identifiers consumed by analytics.
const (
	SignpostAcknowledgedStartOfIsolationDueToRiskyContact        = "acknowledgedStartOfIsolationDueToRiskyContact"
	SignpostDeclaredNegativeResultFromDCT                        = "declaredNegativeResultFromDCT"
	SignpostDidHaveSymptomsBeforeReceivedTestResult              = "didHaveSymptomsBeforeReceivedTestResult"
	SignpostDidRememberOnsetSymptomsDateBeforeReceivedTestResult = "didRememberOnsetSymptomsDateBeforeReceivedTestResult"
	SignpostReceivedPositiveTestResult                           = "receivedPositiveTestResult"
	SignpostReceivedNegativeTestResult                           = "receivedNegativeTestResult"
	SignpostReceivedVoidTestResult                               = "receivedVoidTestResult"
	SignpostReceivedUnconfirmedPositiveTestResult                = "receivedUnconfirmedPositiveTestResult"
	SignpostPositiveLabResultAfterPositiveLFD                    = "positiveLabResultAfterPositiveLFD"
	SignpostNegativeLabResultAfterPositiveLFDWithinTimeLimit     = "negativeLabResultAfterPositiveLFDWithinTimeLimit"
	SignpostNegativeLabResultAfterPositiveLFDOutsideTimeLimit    = "negativeLabResultAfterPositiveLFDOutsideTimeLimit"
	SignpostCompletedSelfDiagnosis                               = "completedSelfDiagnosis"
	SignpostReceivedRiskyContactNotification                     = "receivedRiskyContactNotification"
)

// Signpost is one analytics event.
type Signpost struct {
	Name       string            `json:"name"`
	SubjectID  string            `json:"subjectId,omitempty"`
	RequestID  string            `json:"requestId,omitempty"`
	At         time.Time         `json:"at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Signposter records analytics events.
type Signposter interface {
	Signpost(ctx context.Context, signpost Signpost) error
}

// Notifier delivers user-facing notifications on behalf of a subject.
type Notifier interface {
	RemoveExposureNotifications(ctx context.Context, subjectID id.SubjectID) error
	SendContactCaseIsolationNotification(ctx context.Context, subjectID id.SubjectID) error
}

// LogSignpost logs a signpost and forwards it to signposter when one is set.
// A failing signposter is logged and otherwise ignored: analytics never
// block isolation state changes.
func LogSignpost(ctx context.Context, logger *slog.Logger, signposter Signposter, name string, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	args := append(attrList, "event", name, "log_type", "signpost")
	if logger != nil {
		logger.InfoContext(ctx, name, args...)
	}

	if signposter == nil {
		return
	}
	fields := attrs.ToStringMap(attrList)
	delete(fields, "subject_id")
	delete(fields, "request_id")
	signpost := Signpost{
		Name:       name,
		SubjectID:  attrs.ExtractString(attrList, "subject_id"),
		RequestID:  requestID,
		At:         requestcontext.Now(ctx),
		Attributes: fields,
	}
	if len(signpost.Attributes) == 0 {
		signpost.Attributes = nil
	}
	if err := signposter.Signpost(ctx, signpost); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit signpost", "event", name, "error", err)
	}
}
