package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"isolationd/internal/isolation/config"
	"isolationd/internal/isolation/models"
	"isolationd/pkg/gregorian"
)

var day0 = gregorian.New(2021, time.July, 1)

func dayPtr(d gregorian.Day) *gregorian.Day { return &d }

func testConfig() config.IsolationConfiguration {
	return config.IsolationConfiguration{
		MaxIsolation:                            21,
		ContactCase:                             10,
		IndexCaseSinceSelfDiagnosisOnset:        11,
		IndexCaseSinceSelfDiagnosisUnknownOnset: 9,
		IndexCaseSinceTestResultEndDay:          11,
		HousekeepingDeletionPeriod:              14,
	}
}

func contactOnly(exposure, from gregorian.Day) *models.IsolationStateInfo {
	return &models.IsolationStateInfo{
		IsolationInfo: models.IsolationInfo{
			ContactCaseInfo: &models.ContactCaseInfo{ExposureDay: exposure, IsolationFromStartOfDay: from},
		},
		CreatedOn: from,
	}
}

type ResolverSuite struct {
	suite.Suite
	cfg config.IsolationConfiguration
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.cfg = testConfig()
}

func (s *ResolverSuite) TestNoEvidence() {
	s.Equal(models.NotIsolating(nil), Resolve(nil, day0, s.cfg))
	s.Equal(models.NotIsolating(nil), Resolve(&models.IsolationStateInfo{}, day0, s.cfg))
}

func (s *ResolverSuite) TestWindowBoundary() {
	info := contactOnly(day0, day0)
	until := day0.AddDays(s.cfg.ContactCase)

	before := Resolve(info, until.AddDays(-1), s.cfg)
	s.Equal(models.KindIsolating, before.Kind)
	s.Equal(until, before.Isolation.UntilStartOfDay)

	at := Resolve(info, until, s.cfg)
	s.Equal(models.KindIsolationFinishedButNotAcknowledged, at.Kind)
	s.Equal(until, at.Isolation.UntilStartOfDay)
}

func (s *ResolverSuite) TestIdempotent() {
	info := contactOnly(day0, day0)
	info.IsolationInfo.IndexCaseInfo = &models.IndexCaseInfo{
		SymptomaticInfo: &models.SymptomaticInfo{SelfDiagnosisDay: day0.AddDays(2)},
	}
	for offset := -1; offset < 30; offset++ {
		today := day0.AddDays(offset)
		first := Resolve(info, today, s.cfg)
		second := Resolve(info, today, s.cfg)
		s.True(first.Equal(second), "day %s", today)
		s.Equal(first, second)
	}
}

func (s *ResolverSuite) TestCopiesAcknowledgementFlags() {
	info := contactOnly(day0, day0)
	info.HasAcknowledgedStartOfIsolation = true

	state := Resolve(info, day0, s.cfg)
	s.Equal(models.KindIsolating, state.Kind)
	s.True(state.StartAcknowledged)
	s.False(state.EndAcknowledged)
}

func (s *ResolverSuite) TestFinishedIsolationLifecycle() {
	info := contactOnly(day0, day0)
	until := day0.AddDays(s.cfg.ContactCase)
	info.HasAcknowledgedStartOfIsolation = true
	info.HasAcknowledgedEndOfIsolation = true

	s.Run("kept for display while within the housekeeping period", func() {
		state := Resolve(info, until, s.cfg)
		s.Equal(models.KindNotIsolating, state.Kind)
		s.Require().NotNil(state.Isolation)
		s.Equal(until, state.Isolation.UntilStartOfDay)
	})

	s.Run("dropped once the housekeeping period has passed", func() {
		state := Resolve(info, until.AddDays(s.cfg.HousekeepingDeletionPeriod), s.cfg)
		s.Equal(models.NotIsolating(nil), state)
	})
}

func (s *ResolverSuite) TestSymptomaticWindows() {
	s.Run("known onset", func() {
		onset := day0.AddDays(-1)
		info := &models.IsolationStateInfo{IsolationInfo: models.IsolationInfo{IndexCaseInfo: &models.IndexCaseInfo{
			SymptomaticInfo: &models.SymptomaticInfo{SelfDiagnosisDay: day0, OnsetDay: &onset},
		}}}
		state := Resolve(info, day0, s.cfg)
		s.Require().Equal(models.KindIsolating, state.Kind)
		s.Equal(onset, state.Isolation.FromDay)
		s.Equal(onset.AddDays(s.cfg.IndexCaseSinceSelfDiagnosisOnset), state.Isolation.UntilStartOfDay)
		s.True(state.Isolation.IsSelfDiagnosed())
	})

	s.Run("unknown onset", func() {
		info := &models.IsolationStateInfo{IsolationInfo: models.IsolationInfo{IndexCaseInfo: &models.IndexCaseInfo{
			SymptomaticInfo: &models.SymptomaticInfo{SelfDiagnosisDay: day0},
		}}}
		state := Resolve(info, day0, s.cfg)
		s.Require().Equal(models.KindIsolating, state.Kind)
		s.Equal(day0.AddDays(-2), state.Isolation.FromDay)
		s.Equal(day0.AddDays(s.cfg.IndexCaseSinceSelfDiagnosisUnknownOnset), state.Isolation.UntilStartOfDay)
	})

	s.Run("negative taken after onset ends isolation when received", func() {
		received := day0.AddDays(2)
		info := &models.IsolationStateInfo{IsolationInfo: models.IsolationInfo{IndexCaseInfo: &models.IndexCaseInfo{
			SymptomaticInfo: &models.SymptomaticInfo{SelfDiagnosisDay: day0},
			TestInfo:        &models.TestInfo{Result: models.ResultNegative, TestKitType: models.TestKitLabResult, ReceivedOnDay: received, TestEndDay: dayPtr(day0)},
		}}}
		state := Resolve(info, day0.AddDays(1), s.cfg)
		s.Require().Equal(models.KindIsolating, state.Kind)
		s.Equal(received, state.Isolation.UntilStartOfDay)
	})

	s.Run("negative taken before onset does not shorten", func() {
		info := &models.IsolationStateInfo{IsolationInfo: models.IsolationInfo{IndexCaseInfo: &models.IndexCaseInfo{
			SymptomaticInfo: &models.SymptomaticInfo{SelfDiagnosisDay: day0},
			TestInfo:        &models.TestInfo{Result: models.ResultNegative, TestKitType: models.TestKitLabResult, ReceivedOnDay: day0, TestEndDay: dayPtr(day0.AddDays(-5))},
		}}}
		state := Resolve(info, day0, s.cfg)
		s.Require().Equal(models.KindIsolating, state.Kind)
		s.Equal(day0.AddDays(s.cfg.IndexCaseSinceSelfDiagnosisUnknownOnset), state.Isolation.UntilStartOfDay)
	})
}

func (s *ResolverSuite) TestTestResultWindows() {
	s.Run("positive isolates from the test end day", func() {
		end := day0.AddDays(-1)
		info := &models.IsolationStateInfo{IsolationInfo: models.IsolationInfo{IndexCaseInfo: &models.IndexCaseInfo{
			TestInfo: &models.TestInfo{Result: models.ResultPositive, TestKitType: models.TestKitLabResult, ReceivedOnDay: day0, TestEndDay: &end},
		}}}
		state := Resolve(info, day0, s.cfg)
		s.Require().Equal(models.KindIsolating, state.Kind)
		s.Equal(end, state.Isolation.FromDay)
		s.Equal(end.AddDays(s.cfg.IndexCaseSinceTestResultEndDay), state.Isolation.UntilStartOfDay)
		s.True(state.Isolation.HasConfirmedPositiveTestResult())
	})

	for _, result := range []models.Result{models.ResultNegative, models.ResultVoid, models.ResultPlod} {
		s.Run(string(result)+" alone never isolates", func() {
			info := &models.IsolationStateInfo{IsolationInfo: models.IsolationInfo{IndexCaseInfo: &models.IndexCaseInfo{
				TestInfo: &models.TestInfo{Result: result, TestKitType: models.TestKitLabResult, ReceivedOnDay: day0},
			}}}
			s.Equal(models.NotIsolating(nil), Resolve(info, day0, s.cfg))
		})
	}

	s.Run("symptoms and positive test use earliest start and latest end", func() {
		onset := day0.AddDays(-3)
		end := day0.AddDays(1)
		info := &models.IsolationStateInfo{IsolationInfo: models.IsolationInfo{IndexCaseInfo: &models.IndexCaseInfo{
			SymptomaticInfo: &models.SymptomaticInfo{SelfDiagnosisDay: day0, OnsetDay: &onset},
			TestInfo:        &models.TestInfo{Result: models.ResultPositive, TestKitType: models.TestKitLabResult, ReceivedOnDay: end, TestEndDay: &end},
		}}}
		state := Resolve(info, day0, s.cfg)
		s.Require().Equal(models.KindIsolating, state.Kind)
		s.Equal(onset, state.Isolation.FromDay)
		s.Equal(end.AddDays(s.cfg.IndexCaseSinceTestResultEndDay), state.Isolation.UntilStartOfDay)
	})
}

func (s *ResolverSuite) TestLatestUntilWins() {
	info := contactOnly(day0, day0)
	onset := day0.AddDays(4)
	info.IsolationInfo.IndexCaseInfo = &models.IndexCaseInfo{
		SymptomaticInfo: &models.SymptomaticInfo{SelfDiagnosisDay: onset, OnsetDay: &onset},
	}

	state := Resolve(info, day0.AddDays(5), s.cfg)
	s.Require().Equal(models.KindIsolating, state.Kind)
	s.Equal(day0, state.Isolation.FromDay)
	s.Equal(onset.AddDays(s.cfg.IndexCaseSinceSelfDiagnosisOnset), state.Isolation.UntilStartOfDay)
	s.True(state.Isolation.IsIndexCase())
	s.True(state.Isolation.IsContactCase())
}

func (s *ResolverSuite) TestMaxIsolationCap() {
	s.cfg.MaxIsolation = 12
	info := contactOnly(day0, day0)
	late := day0.AddDays(9)
	info.IsolationInfo.IndexCaseInfo = &models.IndexCaseInfo{
		SymptomaticInfo: &models.SymptomaticInfo{SelfDiagnosisDay: late, OnsetDay: &late},
	}

	state := Resolve(info, day0.AddDays(1), s.cfg)
	s.Require().Equal(models.KindIsolating, state.Kind)
	s.Equal(day0.AddDays(12), state.Isolation.UntilStartOfDay)
}

func (s *ResolverSuite) TestContactCaseOptOut() {
	s.Run("opt-out truncates the contact window", func() {
		// Contact isolation from day 0 would run to day 10; opting out on day 3 ends it on day 3.
		info := contactOnly(day0, day0)
		info.IsolationInfo.ContactCaseInfo.OptOutOfIsolationDay = dayPtr(day0.AddDays(3))
		info.HasAcknowledgedStartOfIsolation = true
		info.HasAcknowledgedEndOfIsolation = true

		state := Resolve(info, day0.AddDays(3), s.cfg)
		s.Require().Equal(models.KindNotIsolating, state.Kind)
		s.Require().NotNil(state.Isolation)
		s.Equal(day0.AddDays(3), state.Isolation.UntilStartOfDay)
		s.True(state.Isolation.OptedOutForContactIsolation())
	})

	s.Run("opt-out in the future is not applied yet", func() {
		info := contactOnly(day0, day0)
		info.IsolationInfo.ContactCaseInfo.OptOutOfIsolationDay = dayPtr(day0.AddDays(3))

		state := Resolve(info, day0.AddDays(2), s.cfg)
		s.Require().Equal(models.KindIsolating, state.Kind)
		s.Equal(day0.AddDays(s.cfg.ContactCase), state.Isolation.UntilStartOfDay)
	})

	s.Run("active index case keeps the later boundary", func() {
		info := contactOnly(day0, day0)
		info.IsolationInfo.ContactCaseInfo.OptOutOfIsolationDay = dayPtr(day0.AddDays(3))
		info.IsolationInfo.IndexCaseInfo = &models.IndexCaseInfo{
			SymptomaticInfo: &models.SymptomaticInfo{SelfDiagnosisDay: day0.AddDays(2)},
		}

		state := Resolve(info, day0.AddDays(3), s.cfg)
		s.Require().Equal(models.KindIsolating, state.Kind)
		s.Equal(day0.AddDays(2+s.cfg.IndexCaseSinceSelfDiagnosisUnknownOnset), state.Isolation.UntilStartOfDay)
	})
}

func (s *ResolverSuite) TestMalformedWindowNeverIsolates() {
	info := contactOnly(day0, day0.AddDays(s.cfg.ContactCase+1))
	info.HasAcknowledgedStartOfIsolation = true

	s.Equal(models.NotIsolating(nil), Resolve(info, day0, s.cfg))

	info.HasAcknowledgedEndOfIsolation = true
	s.Equal(models.NotIsolating(nil), Resolve(info, day0.AddDays(30), s.cfg))
}

func TestIsolationReportsNoWindow(t *testing.T) {
	_, ok := Isolation(models.IsolationInfo{}, day0, testConfig())
	require.False(t, ok)

	iso, ok := Isolation(contactOnly(day0, day0).IsolationInfo, day0, testConfig())
	require.True(t, ok)
	assert.True(t, iso.IsContactCaseOnly())
}
