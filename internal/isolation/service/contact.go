package service

import (
	"context"
	"fmt"

	"isolationd/internal/isolation/models"
	"isolationd/internal/isolation/ports"
	dErrors "isolationd/pkg/domain-errors"
)

// HandleContactCase records a risky exposure notified today and tells the
// subject to isolate.
func (c *Context) HandleContactCase(ctx context.Context, risk models.RiskInfo) (models.IsolationState, error) {
	if err := risk.Validate(); err != nil {
		return models.IsolationState{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	today := c.today(ctx)
	if risk.ExposureDay.After(today) {
		return models.IsolationState{}, dErrors.New(dErrors.CodeInvalidInput, "exposure day cannot be in the future")
	}
	info := models.ContactCaseInfo{ExposureDay: risk.ExposureDay, IsolationFromStartOfDay: today}
	if err := c.store.SetContactCaseInfo(ctx, info); err != nil {
		return models.IsolationState{}, c.storeError(ctx, err, "failed to store contact case")
	}

	if c.notifier != nil {
		if err := c.notifier.SendContactCaseIsolationNotification(ctx, c.subjectID); err != nil {
			c.logger.WarnContext(ctx, "failed to send contact case notification",
				"subject_id", c.subjectID.String(), "error", err)
		}
	}
	c.signpost(ctx, ports.SignpostReceivedRiskyContactNotification,
		"exposure_day", risk.ExposureDay.String(), "risk_score", fmt.Sprintf("%g", risk.RiskScore))
	return c.Snapshot(ctx).IsolationState, nil
}

// DailyContactTestingSupport reports whether the subject may end their
// isolation by declaring a negative daily contact test. Only an active
// isolation caused solely by a contact qualifies.
func (c *Context) DailyContactTestingSupport(ctx context.Context) bool {
	active := c.LogicalState(ctx).ActiveIsolation()
	return active != nil && active.IsContactCaseOnly()
}

// OptOutOfContactIsolation ends a contact-case isolation today after a
// negative daily contact test.
func (c *Context) OptOutOfContactIsolation(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.IsolationInfo().ContactCaseInfo == nil {
		c.logger.InfoContext(ctx, "ignoring contact isolation opt-out without a contact case",
			"subject_id", c.subjectID.String())
		return nil
	}
	if !c.DailyContactTestingSupport(ctx) {
		return dErrors.New(dErrors.CodeConflict, "daily contact testing is not available")
	}

	if err := c.store.OptOutOfContactIsolation(ctx, c.today(ctx)); err != nil {
		return c.storeError(ctx, err, "failed to store contact isolation opt-out")
	}
	c.signpost(ctx, ports.SignpostDeclaredNegativeResultFromDCT)
	c.Snapshot(ctx)
	return nil
}
