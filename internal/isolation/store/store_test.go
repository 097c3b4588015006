package store

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"isolationd/internal/isolation/config"
	"isolationd/internal/isolation/models"
	"isolationd/internal/isolation/store/memory"
	"isolationd/internal/isolation/store/mocks"
	"isolationd/pkg/gregorian"
	"isolationd/pkg/platform/sentinel"
)

const testKey = "isolation/0b8f6f9e-6a8e-4d53-9d1e-0d7f3c4c2a11"

var day0 = gregorian.New(2021, time.July, 20)

func dayPtr(d gregorian.Day) *gregorian.Day { return &d }

type StoreSuite struct {
	suite.Suite
	ctx     context.Context
	backend *memory.Backend
	today   gregorian.Day
	store   *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.backend = memory.New()
	s.today = day0
	s.store = s.open()
}

func (s *StoreSuite) open() *Store {
	st, err := New(s.ctx, s.backend, testKey,
		WithToday(func(context.Context) gregorian.Day { return s.today }),
		WithConfiguration(config.Default),
	)
	s.Require().NoError(err)
	return st
}

func (s *StoreSuite) keys() []string {
	keys, err := s.backend.Keys(s.ctx, "isolation/")
	s.Require().NoError(err)
	return keys
}

// seed writes info as the stored record, flags included.
func (s *StoreSuite) seed(info models.IsolationStateInfo) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.Require().NoError(s.store.persistLocked(s.ctx, "seed", &info))
}

func (s *StoreSuite) contact(exposure gregorian.Day) models.ContactCaseInfo {
	return models.ContactCaseInfo{ExposureDay: exposure, IsolationFromStartOfDay: exposure}
}

func (s *StoreSuite) TestStartsEmpty() {
	s.Nil(s.store.StateInfo())
	s.True(s.store.IsolationInfo().IsEmpty())
}

func (s *StoreSuite) TestMutationIsPersistedAndReloaded() {
	s.Require().NoError(s.store.SetContactCaseInfo(s.ctx, s.contact(day0)))

	info := s.store.StateInfo()
	s.Require().NotNil(info)
	s.Equal(day0, info.CreatedOn)

	reloaded := s.open()
	s.Equal(info, reloaded.StateInfo())
}

func (s *StoreSuite) TestStateInfoReturnsACopy() {
	s.Require().NoError(s.store.SetContactCaseInfo(s.ctx, s.contact(day0)))

	info := s.store.StateInfo()
	info.IsolationInfo.ContactCaseInfo.OptOutOfIsolationDay = dayPtr(day0)
	info.HasAcknowledgedStartOfIsolation = true

	fresh := s.store.StateInfo()
	s.Nil(fresh.IsolationInfo.ContactCaseInfo.OptOutOfIsolationDay)
	s.False(fresh.HasAcknowledgedStartOfIsolation)
}

func (s *StoreSuite) TestSetSymptomaticInfoKeepsTest() {
	s.Require().NoError(s.store.SetTestInfo(s.ctx, models.TestResult{
		Result:      models.ResultNegative,
		TestKitType: models.TestKitLabResult,
		EndDay:      day0.AddDays(-1),
	}, day0, models.OperationOverwrite))
	s.Require().NoError(s.store.SetSymptomaticInfo(s.ctx, models.SymptomaticInfo{SelfDiagnosisDay: day0}))

	info := s.store.IsolationInfo()
	s.Require().NotNil(info.TestInfo())
	s.Equal(models.ResultNegative, info.TestInfo().Result)
	s.Require().NotNil(info.SymptomaticInfo())
	s.Equal(day0, info.SymptomaticInfo().SelfDiagnosisDay)
}

func (s *StoreSuite) TestSetIndexCaseInfoRejectsEmpty() {
	err := s.store.SetIndexCaseInfo(s.ctx, models.IndexCaseInfo{})
	s.ErrorIs(err, sentinel.ErrInvalidState)
	s.Nil(s.store.StateInfo())
}

func (s *StoreSuite) TestIgnoreOperationWritesNothing() {
	s.Require().NoError(s.store.SetTestInfo(s.ctx, models.TestResult{
		Result:      models.ResultVoid,
		TestKitType: models.TestKitLabResult,
		EndDay:      day0,
	}, day0, models.OperationIgnore))
	s.Nil(s.store.StateInfo())
	s.Empty(s.keys())
}

func (s *StoreSuite) TestSetTestInfoMovesAcknowledgementFlags() {
	s.Run("a result that leaves the subject not isolating acknowledges the end", func() {
		s.SetupTest()
		s.Require().NoError(s.store.SetTestInfo(s.ctx, models.TestResult{
			Result:      models.ResultNegative,
			TestKitType: models.TestKitLabResult,
			EndDay:      day0,
		}, day0, models.OperationOverwrite))
		s.True(s.store.StateInfo().HasAcknowledgedEndOfIsolation)
	})

	s.Run("a positive after a finished isolation restarts acknowledgement", func() {
		s.SetupTest()
		s.seed(models.IsolationStateInfo{
			IsolationInfo:                   models.IsolationInfo{ContactCaseInfo: ptr(s.contact(day0.AddDays(-20)))},
			HasAcknowledgedStartOfIsolation: true,
			HasAcknowledgedEndOfIsolation:   true,
			CreatedOn:                       day0.AddDays(-20),
		})
		s.Require().NoError(s.store.SetTestInfo(s.ctx, models.TestResult{
			Result:      models.ResultPositive,
			TestKitType: models.TestKitLabResult,
			EndDay:      day0,
		}, day0, models.OperationOverwrite))

		info := s.store.StateInfo()
		s.NotNil(info.IsolationInfo.TestInfo())
		s.False(info.HasAcknowledgedStartOfIsolation)
		s.False(info.HasAcknowledgedEndOfIsolation)
	})
}

func (s *StoreSuite) TestOptOutOfContactIsolation() {
	s.Require().ErrorIs(s.store.OptOutOfContactIsolation(s.ctx, day0), sentinel.ErrInvalidState)

	s.Require().NoError(s.store.SetContactCaseInfo(s.ctx, s.contact(day0.AddDays(-3))))
	s.Require().NoError(s.store.OptOutOfContactIsolation(s.ctx, day0))

	info := s.store.StateInfo()
	s.Equal(ptr(day0), info.IsolationInfo.ContactCaseInfo.OptOutOfIsolationDay)
	s.True(info.HasAcknowledgedEndOfIsolation)
	s.Len(s.keys(), 1)
}

func (s *StoreSuite) TestNewStateInfoDoesNotStore() {
	preview := s.store.NewStateInfo(s.ctx, models.TestResult{
		Result:      models.ResultPositive,
		TestKitType: models.TestKitLabResult,
		EndDay:      day0,
	}, day0, models.OperationOverwrite)

	s.Require().NotNil(preview.IsolationInfo.TestInfo())
	s.Equal(day0, preview.CreatedOn)
	s.Nil(s.store.StateInfo())
}

func (s *StoreSuite) TestNewIsolationRestartsAcknowledgement() {
	// A finished contact isolation that the subject has fully acknowledged.
	finished := models.IsolationStateInfo{
		IsolationInfo: models.IsolationInfo{
			ContactCaseInfo: ptr(s.contact(day0.AddDays(-12))),
		},
		HasAcknowledgedStartOfIsolation: true,
		HasAcknowledgedEndOfIsolation:   true,
		CreatedOn:                       day0.AddDays(-12),
	}
	s.seed(finished)
	s.True(s.store.StateInfo().HasAcknowledgedEndOfIsolation)

	s.Require().NoError(s.store.SetSymptomaticInfo(s.ctx, models.SymptomaticInfo{SelfDiagnosisDay: day0}))

	info := s.store.StateInfo()
	s.False(info.HasAcknowledgedStartOfIsolation)
	s.False(info.HasAcknowledgedEndOfIsolation)
}

func (s *StoreSuite) TestEvidenceDuringIsolationKeepsAcknowledgement() {
	s.Require().NoError(s.store.SetContactCaseInfo(s.ctx, s.contact(day0.AddDays(-2))))
	s.Require().NoError(s.store.AcknowledgeStartOfIsolation(s.ctx))

	s.Require().NoError(s.store.SetSymptomaticInfo(s.ctx, models.SymptomaticInfo{SelfDiagnosisDay: day0}))
	s.True(s.store.StateInfo().HasAcknowledgedStartOfIsolation)
}

func (s *StoreSuite) TestAcknowledgementFlags() {
	s.Run("no record is a no-op", func() {
		s.Require().NoError(s.store.AcknowledgeStartOfIsolation(s.ctx))
		s.Nil(s.store.StateInfo())
	})

	s.Require().NoError(s.store.SetContactCaseInfo(s.ctx, s.contact(day0)))
	s.Require().NoError(s.store.AcknowledgeStartOfIsolation(s.ctx))
	s.Require().NoError(s.store.AcknowledgeEndOfIsolation(s.ctx))
	info := s.store.StateInfo()
	s.True(info.HasAcknowledgedStartOfIsolation)
	s.True(info.HasAcknowledgedEndOfIsolation)

	s.Require().NoError(s.store.RestartIsolationAcknowledgement(s.ctx))
	info = s.store.StateInfo()
	s.False(info.HasAcknowledgedStartOfIsolation)
	s.False(info.HasAcknowledgedEndOfIsolation)
}

func (s *StoreSuite) TestDelete() {
	s.Require().NoError(s.store.SetContactCaseInfo(s.ctx, s.contact(day0)))
	s.Require().NoError(s.store.Delete(s.ctx))
	s.Nil(s.store.StateInfo())
	s.Empty(s.keys())
	s.Nil(s.open().StateInfo())
}

func (s *StoreSuite) TestSubscribeDeliversLatestSnapshot() {
	updates, cancel := s.store.Subscribe()
	defer cancel()

	s.Require().NoError(s.store.SetContactCaseInfo(s.ctx, s.contact(day0)))
	s.Require().NoError(s.store.AcknowledgeStartOfIsolation(s.ctx))

	snapshot := <-updates
	s.Equal(uint64(2), snapshot.Revision)
	s.Require().NotNil(snapshot.Info)
	s.True(snapshot.Info.HasAcknowledgedStartOfIsolation)

	select {
	case extra := <-updates:
		s.Failf("unexpected snapshot", "revision %d", extra.Revision)
	default:
	}

	s.Require().NoError(s.store.Delete(s.ctx))
	deleted := <-updates
	s.Nil(deleted.Info)

	cancel()
	_, open := <-updates
	s.False(open)
}

func (s *StoreSuite) TestHousekeep() {
	cfg := config.Default()

	s.Run("keeps a finished isolation that was never acknowledged", func() {
		s.SetupTest()
		s.seed(models.IsolationStateInfo{
			IsolationInfo: models.IsolationInfo{ContactCaseInfo: ptr(s.contact(day0.AddDays(-40)))},
			CreatedOn:     day0.AddDays(-40),
		})
		deleted, err := s.store.Housekeep(s.ctx, day0, cfg)
		s.Require().NoError(err)
		s.False(deleted)
	})

	s.Run("keeps an acknowledged isolation inside the retention period", func() {
		s.SetupTest()
		s.seed(models.IsolationStateInfo{
			IsolationInfo:                   models.IsolationInfo{ContactCaseInfo: ptr(s.contact(day0.AddDays(-12)))},
			HasAcknowledgedStartOfIsolation: true,
			HasAcknowledgedEndOfIsolation:   true,
			CreatedOn:                       day0.AddDays(-12),
		})
		deleted, err := s.store.Housekeep(s.ctx, day0, cfg)
		s.Require().NoError(err)
		s.False(deleted)
	})

	s.Run("deletes an acknowledged isolation past retention", func() {
		s.SetupTest()
		s.seed(models.IsolationStateInfo{
			IsolationInfo:                   models.IsolationInfo{ContactCaseInfo: ptr(s.contact(day0.AddDays(-40)))},
			HasAcknowledgedStartOfIsolation: true,
			HasAcknowledgedEndOfIsolation:   true,
			CreatedOn:                       day0.AddDays(-40),
		})
		deleted, err := s.store.Housekeep(s.ctx, day0, cfg)
		s.Require().NoError(err)
		s.True(deleted)
		s.Nil(s.store.StateInfo())
	})

	s.Run("deletes stale evidence that never caused isolation", func() {
		s.SetupTest()
		s.Require().NoError(s.store.SetTestInfo(s.ctx, models.TestResult{
			Result:      models.ResultNegative,
			TestKitType: models.TestKitLabResult,
			EndDay:      day0,
		}, day0, models.OperationOverwrite))

		deleted, err := s.store.Housekeep(s.ctx, day0, cfg)
		s.Require().NoError(err)
		s.False(deleted, "a fresh record is kept")

		deleted, err = s.store.Housekeep(s.ctx, day0.AddDays(cfg.HousekeepingDeletionPeriod), cfg)
		s.Require().NoError(err)
		s.True(deleted)
	})
}

func TestFailedWriteLeavesStateUnchanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	ctx := context.Background()

	backend.EXPECT().Load(gomock.Any(), testKey).Return(nil, sentinel.ErrNotFound)
	st, err := New(ctx, backend, testKey, WithToday(func(context.Context) gregorian.Day { return day0 }))
	require.NoError(t, err)

	updates, cancel := st.Subscribe()
	defer cancel()

	backend.EXPECT().Save(gomock.Any(), testKey, gomock.Any()).Return(errors.New("disk full"))
	err = st.SetContactCaseInfo(ctx, models.ContactCaseInfo{ExposureDay: day0, IsolationFromStartOfDay: day0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Nil(t, st.StateInfo())

	select {
	case <-updates:
		t.Fatal("a failed write must not be published")
	default:
	}
}

func TestNewLoadsExistingAndToleratesCorruption(t *testing.T) {
	ctx := context.Background()

	t.Run("backend failure is returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		backend := mocks.NewMockBackend(ctrl)
		backend.EXPECT().Load(gomock.Any(), testKey).Return(nil, sentinel.ErrUnavailable)

		_, err := New(ctx, backend, testKey)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("unreadable record is treated as absent", func(t *testing.T) {
		backend := memory.New()
		require.NoError(t, backend.Save(ctx, testKey, []byte("garbage")))

		st, err := New(ctx, backend, testKey)
		require.NoError(t, err)
		assert.Nil(t, st.StateInfo())
	})

	t.Run("encrypted record round trips", func(t *testing.T) {
		backend := memory.New()
		codec, err := NewCodec(make([]byte, 32))
		require.NoError(t, err)

		st, err := New(ctx, backend, testKey, WithCodec(codec))
		require.NoError(t, err)
		require.NoError(t, st.SetContactCaseInfo(ctx, models.ContactCaseInfo{ExposureDay: day0, IsolationFromStartOfDay: day0}))

		reloaded, err := New(ctx, backend, testKey, WithCodec(codec))
		require.NoError(t, err)
		assert.Equal(t, st.StateInfo(), reloaded.StateInfo())
	})

	t.Run("requires backend and key", func(t *testing.T) {
		_, err := New(ctx, nil, testKey)
		assert.Error(t, err)
		_, err = New(ctx, memory.New(), "")
		assert.Error(t, err)
	})
}

func ptr[T any](v T) *T { return &v }
