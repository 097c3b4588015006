// Package resolver maps stored isolation evidence and the current day onto a
// logical state. Everything here is pure: the same inputs always yield the
// same state, so it is safe to recompute on every tick.
package resolver

import (
	"isolationd/internal/isolation/config"
	"isolationd/internal/isolation/models"
	"isolationd/pkg/gregorian"
)

type window struct {
	from  gregorian.Day
	until gregorian.Day
}

func (w window) valid() bool { return w.from.Before(w.until) }

func (w window) union(other window) window {
	return window{
		from:  gregorian.Min(w.from, other.from),
		until: gregorian.Max(w.until, other.until),
	}
}

// Resolve computes the logical state of info as of today.
func Resolve(info *models.IsolationStateInfo, today gregorian.Day, cfg config.IsolationConfiguration) models.LogicalState {
	if info == nil {
		return models.NotIsolating(nil)
	}
	isolation, ok := Isolation(info.IsolationInfo, today, cfg)
	if !ok {
		return models.NotIsolating(nil)
	}

	if today.Before(isolation.UntilStartOfDay) {
		return models.Isolating(isolation, info.HasAcknowledgedEndOfIsolation, info.HasAcknowledgedStartOfIsolation)
	}
	if !info.HasAcknowledgedEndOfIsolation {
		return models.FinishedButNotAcknowledged(isolation)
	}
	if today.Before(isolation.UntilStartOfDay.AddDays(cfg.HousekeepingDeletionPeriod)) {
		return models.NotIsolating(&isolation)
	}
	return models.NotIsolating(nil)
}

// Isolation derives the isolation period from info. It reports false when
// no evidence yields a non-empty window.
func Isolation(info models.IsolationInfo, today gregorian.Day, cfg config.IsolationConfiguration) (models.Isolation, bool) {
	var (
		combined window
		found    bool
		reason   models.Reason
	)
	include := func(w window) {
		if found {
			combined = combined.union(w)
		} else {
			combined, found = w, true
		}
	}

	if index := info.IndexCaseInfo; index != nil {
		if w, ok := indexCaseWindow(*index, cfg); ok {
			include(w)
			reason.IndexCase = models.NewIndexCaseReason(*index)
		}
	}
	if contact := info.ContactCaseInfo; contact != nil {
		if w, ok := contactCaseWindow(*contact, today, cfg); ok {
			include(w)
			reason.ContactCase = models.NewContactCaseReason(*contact)
		}
	}
	if !found {
		return models.Isolation{}, false
	}

	combined.until = gregorian.Min(combined.until, combined.from.AddDays(cfg.MaxIsolation))
	if !combined.valid() {
		return models.Isolation{}, false
	}
	return models.Isolation{
		FromDay:         combined.from,
		UntilStartOfDay: combined.until,
		Reason:          reason,
	}, true
}

func indexCaseWindow(index models.IndexCaseInfo, cfg config.IsolationConfiguration) (window, bool) {
	var (
		w     window
		found bool
	)
	if s := index.SymptomaticInfo; s != nil {
		if sw := symptomaticWindow(*s, index.TestInfo, cfg); sw.valid() {
			w, found = sw, true
		}
	}
	if t := index.TestInfo; t != nil && t.IsPositive() {
		end := t.AssumedTestEndDay()
		tw := window{from: end, until: end.AddDays(cfg.IndexCaseSinceTestResultEndDay)}
		if tw.valid() {
			if found {
				w = w.union(tw)
			} else {
				w, found = tw, true
			}
		}
	}
	return w, found
}

// symptomaticWindow runs from the assumed onset. A negative test taken on or
// after onset ends it on the day the negative arrived.
func symptomaticWindow(s models.SymptomaticInfo, test *models.TestInfo, cfg config.IsolationConfiguration) window {
	onset := s.AssumedOnsetDay()
	var until gregorian.Day
	if s.OnsetDay != nil {
		until = onset.AddDays(cfg.IndexCaseSinceSelfDiagnosisOnset)
	} else {
		until = s.SelfDiagnosisDay.AddDays(cfg.IndexCaseSinceSelfDiagnosisUnknownOnset)
	}
	if test != nil && test.Result == models.ResultNegative && !test.AssumedTestEndDay().Before(onset) {
		until = gregorian.Min(until, test.ReceivedOnDay)
	}
	return window{from: onset, until: until}
}

// contactCaseWindow truncates at an opt-out day that has already arrived.
func contactCaseWindow(c models.ContactCaseInfo, today gregorian.Day, cfg config.IsolationConfiguration) (window, bool) {
	w := window{
		from:  c.IsolationFromStartOfDay,
		until: c.ExposureDay.AddDays(cfg.ContactCase),
	}
	if opt := c.OptOutOfIsolationDay; opt != nil && !opt.After(today) {
		w.until = gregorian.Min(w.until, *opt)
	}
	return w, w.valid()
}
