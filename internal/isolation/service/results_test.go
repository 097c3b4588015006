package service

import (
	"errors"

	"go.uber.org/mock/gomock"

	"isolationd/internal/isolation/acknowledgement"
	"isolationd/internal/isolation/models"
	"isolationd/internal/isolation/ports"
	storemocks "isolationd/internal/isolation/store/mocks"
	dErrors "isolationd/pkg/domain-errors"
	"isolationd/pkg/gregorian"
	"isolationd/pkg/platform/sentinel"
)

func positive(endDay gregorian.Day, kit models.TestKitType, requiresConfirmation bool) models.TestResult {
	return models.TestResult{
		Result:                   models.ResultPositive,
		TestKitType:              kit,
		EndDay:                   endDay,
		RequiresConfirmatoryTest: requiresConfirmation,
	}
}

func negative(endDay gregorian.Day) models.TestResult {
	return models.TestResult{Result: models.ResultNegative, TestKitType: models.TestKitLabResult, EndDay: endDay}
}

func (s *ContextSuite) acknowledgeResult(result models.TestResult) (ResultAcknowledgement, CompletionActions) {
	preview, err := s.isolation.MakeResultAcknowledgementState(s.ctx, result)
	s.Require().NoError(err)
	actions, err := s.isolation.AcknowledgeResult(s.ctx, preview.Token)
	s.Require().NoError(err)
	return preview, actions
}

func (s *ContextSuite) allowSignposts() {
	s.signposter.EXPECT().Signpost(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (s *ContextSuite) TestPreviewStoresNothing() {
	preview, err := s.isolation.MakeResultAcknowledgementState(s.ctx, positive(day0, models.TestKitLabResult, false))
	s.Require().NoError(err)

	s.Equal(ResultKindPositiveStartToIsolate, preview.Kind)
	s.Equal(models.OperationOverwrite, preview.Operation)
	s.False(preview.Token.IsZero())
	s.True(preview.NewState.IsIsolating())
	s.Nil(s.isolation.store.StateInfo())
}

func (s *ContextSuite) TestInvalidResultIsRejected() {
	_, err := s.isolation.MakeResultAcknowledgementState(s.ctx, models.TestResult{Result: "maybe"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ContextSuite) TestUnknownResultTokenIsNotFound() {
	_, err := s.isolation.AcknowledgeResult(s.ctx, acknowledgement.Token{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ContextSuite) TestResultTokenIsSingleUse() {
	s.allowSignposts()
	preview, err := s.isolation.MakeResultAcknowledgementState(s.ctx, positive(day0, models.TestKitLabResult, false))
	s.Require().NoError(err)

	_, err = s.isolation.AcknowledgeResult(s.ctx, preview.Token)
	s.Require().NoError(err)
	_, err = s.isolation.AcknowledgeResult(s.ctx, preview.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ContextSuite) TestResultIsStoredInOneWrite() {
	backend := storemocks.NewMockBackend(s.ctrl)
	backend.EXPECT().Load(gomock.Any(), Key(s.subjectID)).Return(nil, sentinel.ErrNotFound)
	backend.EXPECT().Save(gomock.Any(), Key(s.subjectID), gomock.Any()).Return(nil).Times(1)
	isolation := s.openOn(backend)
	s.expectSignposts(ports.SignpostReceivedNegativeTestResult)

	preview, err := isolation.MakeResultAcknowledgementState(s.ctx, negative(day0))
	s.Require().NoError(err)
	_, err = isolation.AcknowledgeResult(s.ctx, preview.Token)
	s.Require().NoError(err)

	info := isolation.store.StateInfo()
	s.Require().NotNil(info)
	s.Equal(models.ResultNegative, info.IsolationInfo.TestInfo().Result)
	s.True(info.HasAcknowledgedEndOfIsolation)
}

func (s *ContextSuite) TestFailedResultWriteKeepsTokenForRetry() {
	backend := storemocks.NewMockBackend(s.ctrl)
	backend.EXPECT().Load(gomock.Any(), Key(s.subjectID)).Return(nil, sentinel.ErrNotFound)
	gomock.InOrder(
		backend.EXPECT().Save(gomock.Any(), Key(s.subjectID), gomock.Any()).Return(errors.New("disk full")),
		backend.EXPECT().Save(gomock.Any(), Key(s.subjectID), gomock.Any()).Return(nil),
	)
	isolation := s.openOn(backend)

	preview, err := isolation.MakeResultAcknowledgementState(s.ctx, negative(day0))
	s.Require().NoError(err)
	_, err = isolation.AcknowledgeResult(s.ctx, preview.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Nil(isolation.store.StateInfo(), "nothing is half stored")

	// Signposts fire only for the write that lands.
	s.expectSignposts(ports.SignpostReceivedNegativeTestResult)
	_, err = isolation.AcknowledgeResult(s.ctx, preview.Token)
	s.Require().NoError(err)
	info := isolation.store.StateInfo()
	s.Require().NotNil(info)
	s.True(info.HasAcknowledgedEndOfIsolation)
}

func (s *ContextSuite) TestConfirmedPositiveIsNeverDowngradedByNegative() {
	s.allowSignposts()
	s.acknowledgeResult(positive(day0, models.TestKitLabResult, false))

	preview, actions := s.acknowledgeResult(negative(day0.AddDays(1)))
	s.Equal(models.OperationIgnore, preview.Operation)
	s.Equal(ResultKindNegativeContinueToIsolate, preview.Kind)
	s.False(actions.ShouldAllowKeySubmission)

	test := s.isolation.store.IsolationInfo().TestInfo()
	s.Require().NotNil(test)
	s.Equal(models.ResultPositive, test.Result)
}

func (s *ContextSuite) TestUnconfirmedPositiveThenConfirmatoryLabResult() {
	s.allowSignposts()
	unconfirmed := positive(day0, models.TestKitRapidResult, true)
	unconfirmed.ConfirmatoryDayLimit = ptr(2)

	preview, actions := s.acknowledgeResult(unconfirmed)
	s.Equal(models.OperationOverwrite, preview.Operation)
	s.True(actions.ShouldSuggestBookingFollowUpTest)
	s.True(actions.ShouldAllowKeySubmission)
	s.True(s.isolation.LogicalState(s.ctx).Isolation.IsPendingConfirmation())

	s.now = noonOn(day0.AddDays(1))
	preview, actions = s.acknowledgeResult(positive(day0.AddDays(1), models.TestKitLabResult, false))
	s.Equal(models.OperationConfirm, preview.Operation)
	s.Equal(ResultKindPositiveContinueToIsolate, preview.Kind)
	s.False(actions.ShouldSuggestBookingFollowUpTest)

	test := s.isolation.store.IsolationInfo().TestInfo()
	s.Require().NotNil(test)
	s.False(test.RequiresConfirmatoryTest)
	s.Equal(ptr(day0.AddDays(1)), test.ConfirmedOnDay)
	s.Equal(ptr(day0), test.TestEndDay)
	s.Equal(ConfirmationCompleted, s.isolation.MyData(s.ctx).TestResultDetails.ConfirmationStatus)
}

func (s *ContextSuite) TestNegativeLabResultWithinWindowEndsUnconfirmedIsolation() {
	s.allowSignposts()
	unconfirmed := positive(day0, models.TestKitRapidResult, true)
	unconfirmed.ConfirmatoryDayLimit = ptr(2)
	s.acknowledgeResult(unconfirmed)

	s.now = noonOn(day0.AddDays(2))
	preview, actions := s.acknowledgeResult(negative(day0.AddDays(2)))
	s.Equal(models.OperationOverwriteAndComplete, preview.Operation)
	s.Equal(ResultKindNegativeNotIsolating, preview.Kind)
	s.False(actions.ShouldSuggestBookingFollowUpTest)

	info := s.isolation.store.StateInfo()
	s.True(info.HasAcknowledgedEndOfIsolation)
	s.False(s.isolation.LogicalState(s.ctx).IsIsolating())
}

func (s *ContextSuite) TestResultSignposts() {
	unconfirmed := positive(day0, models.TestKitRapidResult, true)
	s.expectSignposts(ports.SignpostReceivedPositiveTestResult, ports.SignpostReceivedUnconfirmedPositiveTestResult)
	s.acknowledgeResult(unconfirmed)

	s.expectSignposts(ports.SignpostReceivedPositiveTestResult, ports.SignpostPositiveLabResultAfterPositiveLFD)
	s.acknowledgeResult(positive(day0, models.TestKitLabResult, false))
}

func (s *ContextSuite) TestNewPositiveAfterFinishedIsolationStartsAgain() {
	s.allowSignposts()
	s.acknowledgeResult(positive(day0, models.TestKitLabResult, false))

	s.now = noonOn(day0.AddDays(20))
	preview, _ := s.acknowledgeResult(positive(day0.AddDays(20), models.TestKitLabResult, false))
	s.Equal(models.OperationOverwrite, preview.Operation)
	s.Equal(ResultKindPositiveStartToIsolate, preview.Kind)

	info := s.isolation.store.StateInfo()
	s.False(info.HasAcknowledgedStartOfIsolation)
	s.False(info.HasAcknowledgedEndOfIsolation)
	s.Equal(acknowledgement.KindNeededForStart, s.isolation.AcknowledgementState(s.ctx).Kind)
}

func (s *ContextSuite) TestAskForSymptomsBeforeResult() {
	s.isolation.SetShouldAskForSymptoms(true)
	preview, err := s.isolation.MakeResultAcknowledgementState(s.ctx, positive(day0, models.TestKitLabResult, false))
	s.Require().NoError(err)
	s.Equal(ResultKindAskForSymptomsOnsetDay, preview.Kind)
	s.Equal(day0, preview.TestEndDay)
	s.True(preview.Token.IsZero())

	s.expectSignposts(ports.SignpostDidHaveSymptomsBeforeReceivedTestResult, ports.SignpostDidRememberOnsetSymptomsDateBeforeReceivedTestResult)
	s.isolation.ConfirmSymptoms(s.ctx)
	s.Require().NoError(s.isolation.SetSymptomsOnsetDay(s.ctx, day0.AddDays(-1)))
	s.False(s.isolation.ShouldAskForSymptoms())

	s.Equal(ptr(day0.AddDays(-1)), s.isolation.MyData(s.ctx).SymptomsOnsetDay)
}

func (s *ContextSuite) TestNewPreviewSupersedesPendingResult() {
	s.allowSignposts()
	preview, err := s.isolation.MakeResultAcknowledgementState(s.ctx, negative(day0))
	s.Require().NoError(err)
	s.Equal(models.OperationOverwrite, preview.Operation)

	s.acknowledgeResult(positive(day0, models.TestKitLabResult, false))

	_, err = s.isolation.AcknowledgeResult(s.ctx, preview.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
