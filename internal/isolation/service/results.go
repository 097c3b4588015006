package service

import (
	"context"

	"github.com/google/uuid"

	"isolationd/internal/isolation/acknowledgement"
	"isolationd/internal/isolation/config"
	"isolationd/internal/isolation/merge"
	"isolationd/internal/isolation/models"
	"isolationd/internal/isolation/ports"
	"isolationd/internal/isolation/resolver"
	dErrors "isolationd/pkg/domain-errors"
	"isolationd/pkg/gregorian"
)

// ResultKind tells the result flow which screen of advice applies.
type ResultKind string

const (
	ResultKindAskForSymptomsOnsetDay    ResultKind = "askForSymptomsOnsetDay"
	ResultKindPositiveStartToIsolate    ResultKind = "positiveStartToIsolate"
	ResultKindPositiveContinueToIsolate ResultKind = "positiveContinueToIsolate"
	ResultKindPositiveWillNotIsolate    ResultKind = "positiveWillNotIsolate"
	ResultKindNegativeContinueToIsolate ResultKind = "negativeContinueToIsolate"
	ResultKindNegativeNotIsolating      ResultKind = "negativeNotIsolating"
	ResultKindVoidContinueToIsolate     ResultKind = "voidContinueToIsolate"
	ResultKindVoidNotIsolating          ResultKind = "voidNotIsolating"
	ResultKindPlodContinueToIsolate     ResultKind = "plodContinueToIsolate"
	ResultKindPlodNotIsolating          ResultKind = "plodNotIsolating"
)

// ResultAcknowledgement previews what acknowledging a test result will do.
// Nothing is stored until AcknowledgeResult is called with Token.
type ResultAcknowledgement struct {
	Kind          ResultKind
	Token         acknowledgement.Token
	TestEndDay    gregorian.Day
	Operation     models.StoreOperation
	CurrentState  models.LogicalState
	NewState      models.LogicalState
	IndexCaseInfo *models.IndexCaseInfo
}

// CompletionActions are what the result flow should offer next.
type CompletionActions struct {
	ShouldSuggestBookingFollowUpTest bool `json:"shouldSuggestBookingFollowUpTest"`
	ShouldAllowKeySubmission         bool `json:"shouldAllowKeySubmission"`
}

type resultPlan struct {
	today     gregorian.Day
	operation models.StoreOperation
	current   models.LogicalState
	next      models.LogicalState
	nextInfo  models.IsolationStateInfo
	stored    *models.IsolationStateInfo
}

func (c *Context) planResult(ctx context.Context, result models.TestResult, cfg config.IsolationConfiguration) resultPlan {
	today := c.today(ctx)
	stored := c.store.StateInfo()
	current := resolver.Resolve(stored, today, cfg)

	var storedInfo *models.IsolationInfo
	if stored != nil {
		storedInfo = &stored.IsolationInfo
	}
	op := merge.Decide(current, storedInfo, result, cfg)
	nextInfo := c.store.NewStateInfo(ctx, result, today, op)
	return resultPlan{
		today:     today,
		operation: op,
		current:   current,
		next:      resolver.Resolve(&nextInfo, today, cfg),
		nextInfo:  nextInfo,
		stored:    stored,
	}
}

// MakeResultAcknowledgementState validates result and previews its effect.
// While the subject is being asked for symptoms, the preview only carries
// the test end day.
func (c *Context) MakeResultAcknowledgementState(ctx context.Context, result models.TestResult) (ResultAcknowledgement, error) {
	if err := result.Validate(); err != nil {
		return ResultAcknowledgement{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shouldAskForSymptoms {
		return ResultAcknowledgement{Kind: ResultKindAskForSymptomsOnsetDay, TestEndDay: result.EndDay}, nil
	}

	plan := c.planResult(ctx, result, c.config())
	token := acknowledgement.Token(uuid.New())
	c.pendingResults = map[acknowledgement.Token]models.TestResult{token: result}

	return ResultAcknowledgement{
		Kind:          resultKind(result.Result, plan.current, plan.next),
		Token:         token,
		TestEndDay:    result.EndDay,
		Operation:     plan.operation,
		CurrentState:  plan.current,
		NewState:      plan.next,
		IndexCaseInfo: plan.nextInfo.IsolationInfo.IndexCaseInfo,
	}, nil
}

func resultKind(result models.Result, current, next models.LogicalState) ResultKind {
	isolating := next.IsIsolating()
	switch result {
	case models.ResultPositive:
		switch {
		case isolating && current.IsIsolating():
			return ResultKindPositiveContinueToIsolate
		case isolating:
			return ResultKindPositiveStartToIsolate
		default:
			return ResultKindPositiveWillNotIsolate
		}
	case models.ResultNegative:
		if isolating {
			return ResultKindNegativeContinueToIsolate
		}
		return ResultKindNegativeNotIsolating
	case models.ResultVoid:
		if isolating {
			return ResultKindVoidContinueToIsolate
		}
		return ResultKindVoidNotIsolating
	default:
		if isolating {
			return ResultKindPlodContinueToIsolate
		}
		return ResultKindPlodNotIsolating
	}
}

// AcknowledgeResult stores the result previewed under token and returns the
// follow-up actions. The decision is re-evaluated against the evidence held
// now, so writes made since the preview are never overwritten. The result and
// its acknowledgement flags are stored in one write; a token is spent only
// once that write succeeds.
func (c *Context) AcknowledgeResult(ctx context.Context, token acknowledgement.Token) (CompletionActions, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, ok := c.pendingResults[token]
	if !ok {
		return CompletionActions{}, dErrors.New(dErrors.CodeNotFound, "no pending test result for this token")
	}

	plan := c.planResult(ctx, result, c.config())
	if err := c.store.SetTestInfo(ctx, result, plan.today, plan.operation); err != nil {
		return CompletionActions{}, c.storeError(ctx, err, "failed to store test result")
	}
	delete(c.pendingResults, token)

	c.trackResultMetrics(ctx, plan, result)
	if c.metrics != nil {
		c.metrics.IncrementStoreOperation(string(plan.operation))
	}
	c.Snapshot(ctx)

	return completionActions(plan, result), nil
}

func completionActions(plan resultPlan, result models.TestResult) CompletionActions {
	suggestFollowUp := false
	switch {
	case plan.current.IsIsolating() && result.RequiresConfirmatoryTest && plan.current.Isolation.HasConfirmedPositiveTestResult():
		suggestFollowUp = false
	case plan.next.IsIsolating() && result.RequiresConfirmatoryTest:
		suggestFollowUp = plan.operation != models.OperationOverwriteAndComplete
	}
	return CompletionActions{
		ShouldSuggestBookingFollowUpTest: suggestFollowUp,
		ShouldAllowKeySubmission:         plan.operation != models.OperationIgnore,
	}
}

// trackResultMetrics signposts the received result and, for a lab result
// following an unconfirmed positive, how the confirmation went.
func (c *Context) trackResultMetrics(ctx context.Context, plan resultPlan, result models.TestResult) {
	kit := "test_kit_type"
	switch result.Result {
	case models.ResultPositive:
		c.signpost(ctx, ports.SignpostReceivedPositiveTestResult, kit, string(result.TestKitType))
		if result.RequiresConfirmatoryTest {
			c.signpost(ctx, ports.SignpostReceivedUnconfirmedPositiveTestResult, kit, string(result.TestKitType))
		}
	case models.ResultNegative:
		c.signpost(ctx, ports.SignpostReceivedNegativeTestResult, kit, string(result.TestKitType))
	default:
		c.signpost(ctx, ports.SignpostReceivedVoidTestResult, kit, string(result.TestKitType), "result", string(result.Result))
	}

	if plan.stored == nil || result.TestKitType != models.TestKitLabResult || result.RequiresConfirmatoryTest {
		return
	}
	storedTest := plan.stored.IsolationInfo.TestInfo()
	if storedTest == nil || !storedTest.IsPendingConfirmation() || !plan.current.IsIsolating() {
		return
	}
	switch result.Result {
	case models.ResultPositive:
		c.signpost(ctx, ports.SignpostPositiveLabResultAfterPositiveLFD)
	case models.ResultNegative:
		if plan.operation == models.OperationOverwriteAndComplete {
			c.signpost(ctx, ports.SignpostNegativeLabResultAfterPositiveLFDWithinTimeLimit)
		} else {
			c.signpost(ctx, ports.SignpostNegativeLabResultAfterPositiveLFDOutsideTimeLimit)
		}
	}
}
