// Package merge decides how an incoming test result folds into stored evidence
// and applies that decision. Both steps are pure.
package merge

import (
	"isolationd/internal/isolation/config"
	"isolationd/internal/isolation/models"
	"isolationd/pkg/gregorian"
)

// Decide returns the store operation for incoming. It is total: every
// combination of stored and incoming evidence maps to an operation.
//
// A confirmed positive is never downgraded by a negative, void or plod
// result. Confirmation only happens inside the confirmatory window that
// starts at the stored test's end day.
func Decide(current models.LogicalState, stored *models.IsolationInfo, incoming models.TestResult, cfg config.IsolationConfiguration) models.StoreOperation {
	var storedTest *models.TestInfo
	if stored != nil {
		storedTest = stored.TestInfo()
	}
	if storedTest == nil {
		return models.OperationOverwrite
	}

	switch storedTest.Result {
	case models.ResultPositive:
		return decideOverPositive(current, *storedTest, incoming, cfg)
	case models.ResultNegative:
		if incoming.Result == models.ResultVoid || incoming.Result == models.ResultPlod {
			return models.OperationIgnore
		}
		return models.OperationOverwrite
	default:
		// void, plod and unrecognised stored results carry no isolation.
		return models.OperationOverwrite
	}
}

func decideOverPositive(current models.LogicalState, stored models.TestInfo, incoming models.TestResult, cfg config.IsolationConfiguration) models.StoreOperation {
	storedEnd := stored.AssumedTestEndDay()

	if incoming.Result == models.ResultPositive && !current.IsIsolating() && incoming.EndDay.After(storedEnd) {
		// The earlier positive's isolation is over; this one starts a new period.
		return models.OperationOverwrite
	}

	if !stored.RequiresConfirmatoryTest {
		if incoming.Result == models.ResultPositive {
			return models.OperationOverwriteAndComplete
		}
		return models.OperationIgnore
	}

	switch incoming.Result {
	case models.ResultPositive:
		if incoming.RequiresConfirmatoryTest {
			return models.OperationIgnore
		}
		if incoming.EndDay.Before(storedEnd) {
			return models.OperationOverwriteAndComplete
		}
		if withinConfirmatoryWindow(stored, incoming, cfg) {
			return models.OperationConfirm
		}
		return models.OperationOverwrite
	case models.ResultNegative:
		if withinConfirmatoryWindow(stored, incoming, cfg) {
			return models.OperationOverwriteAndComplete
		}
		return models.OperationIgnore
	default:
		return models.OperationIgnore
	}
}

// ConfirmatoryDayLimit resolves the window length: the incoming result's own
// limit, then the stored test's, then the policy's. Nil means unbounded.
func ConfirmatoryDayLimit(stored models.TestInfo, incoming models.TestResult, cfg config.IsolationConfiguration) *int {
	switch {
	case incoming.ConfirmatoryDayLimit != nil:
		return incoming.ConfirmatoryDayLimit
	case stored.ConfirmatoryDayLimit != nil:
		return stored.ConfirmatoryDayLimit
	default:
		return cfg.ConfirmatoryDayLimit
	}
}

func withinConfirmatoryWindow(stored models.TestInfo, incoming models.TestResult, cfg config.IsolationConfiguration) bool {
	start := stored.AssumedTestEndDay()
	if incoming.EndDay.Before(start) {
		return false
	}
	limit := ConfirmatoryDayLimit(stored, incoming, cfg)
	if limit == nil {
		return true
	}
	return !incoming.EndDay.After(start.AddDays(*limit))
}

// Apply folds incoming into stored according to op and returns the new
// evidence. stored is not modified.
func Apply(stored *models.IsolationInfo, incoming models.TestResult, receivedOn gregorian.Day, op models.StoreOperation) models.IsolationInfo {
	var info models.IsolationInfo
	if stored != nil {
		info = *stored
	}
	var previous *models.TestInfo
	index := models.IndexCaseInfo{}
	if info.IndexCaseInfo != nil {
		index = *info.IndexCaseInfo
		previous = index.TestInfo
	}

	switch op {
	case models.OperationOverwrite:
		next := incoming.TestInfo(receivedOn)
		index.TestInfo = &next
	case models.OperationOverwriteAndComplete:
		next := incoming.TestInfo(receivedOn)
		if previous != nil && previous.IsPositive() && next.IsPositive() {
			earlier := gregorian.Min(previous.AssumedTestEndDay(), next.AssumedTestEndDay())
			next.TestEndDay = &earlier
		}
		confirmedOn := incoming.EndDay
		next.RequiresConfirmatoryTest = false
		next.ConfirmedOnDay = &confirmedOn
		index.TestInfo = &next
	case models.OperationConfirm:
		if previous == nil {
			return info
		}
		confirmed := *previous
		confirmedOn := incoming.EndDay
		confirmed.RequiresConfirmatoryTest = false
		confirmed.ConfirmedOnDay = &confirmedOn
		index.TestInfo = &confirmed
	default:
		return info
	}

	info.IndexCaseInfo = &index
	return info
}
