package service

import (
	"context"

	"isolationd/internal/isolation/acknowledgement"
	"isolationd/internal/isolation/ports"
)

// AcknowledgementState returns the acknowledgement currently owed.
func (c *Context) AcknowledgementState(ctx context.Context) acknowledgement.State {
	return c.Snapshot(ctx).Acknowledgement
}

// Acknowledge settles the owed acknowledgement identified by token. It
// reports false, without side effects, when token is stale or was already
// used.
func (c *Context) Acknowledge(ctx context.Context, token acknowledgement.Token) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	owed := c.Snapshot(ctx).Acknowledgement
	if owed.Kind == acknowledgement.KindNotNeeded || owed.Token != token {
		c.logger.InfoContext(ctx, "ignoring stale acknowledgement",
			"subject_id", c.subjectID.String(), "token", token.String(), "owed", owed.Kind.String())
		return false, nil
	}

	switch owed.Kind {
	case acknowledgement.KindNeededForStart:
		if err := c.store.AcknowledgeStartOfIsolation(ctx); err != nil {
			return false, c.storeError(ctx, err, "failed to acknowledge start of isolation")
		}
		if owed.Isolation.IsContactCaseOnly() {
			if c.notifier != nil {
				if err := c.notifier.RemoveExposureNotifications(ctx, c.subjectID); err != nil {
					c.logger.WarnContext(ctx, "failed to remove exposure notifications",
						"subject_id", c.subjectID.String(), "error", err)
				}
			}
			c.signpost(ctx, ports.SignpostAcknowledgedStartOfIsolationDueToRiskyContact)
		}
	case acknowledgement.KindNeededForEnd:
		if err := c.store.AcknowledgeEndOfIsolation(ctx); err != nil {
			return false, c.storeError(ctx, err, "failed to acknowledge end of isolation")
		}
	}
	c.Snapshot(ctx)
	return true, nil
}
