package attendance

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/faceid/internal/config"
	"github.com/your-org/faceid/internal/models"
	"github.com/your-org/faceid/internal/storage"
)

func testConfig() config.MatchingConfig {
	return config.MatchingConfig{
		DistanceThreshold:  0.5,
		LivenessThreshold:  0.6,
		DuplicateThreshold: 0.4,
		Dimensions:         128,
	}
}

func newTestService() (*Service, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return NewService(store, store, testConfig()), store
}

// vec returns a 128-dim vector with the first component set to v, so
// L2 distances between test vectors are exactly |v1 - v2|.
func vec(v float32) []float32 {
	e := make([]float32, 128)
	e[0] = v
	return e
}

func register(t *testing.T, svc *Service, externalID string, v float32) *models.Identity {
	t.Helper()
	ident, err := svc.Register(context.Background(), RegisterParams{
		ExternalID: externalID,
		Name:       "Person " + externalID,
		Embedding:  vec(v),
	})
	require.NoError(t, err)
	return ident
}

func TestRegisterValidation(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	cases := []struct {
		name   string
		params RegisterParams
	}{
		{"empty external id", RegisterParams{Name: "A", Embedding: vec(1)}},
		{"empty name", RegisterParams{ExternalID: "u1", Embedding: vec(1)}},
		{"short embedding", RegisterParams{ExternalID: "u1", Name: "A", Embedding: make([]float32, 64)}},
		{"bad role", RegisterParams{ExternalID: "u1", Name: "A", Embedding: vec(1), Role: "root"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.params)
			var invalid *models.InvalidInputError
			require.ErrorAs(t, err, &invalid)
		})
	}

	idents, err := store.ListIdentities(ctx)
	require.NoError(t, err)
	assert.Empty(t, idents)
}

func TestRegisterDuplicateExternalID(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	register(t, svc, "u1", 1)

	_, err := svc.Register(ctx, RegisterParams{
		ExternalID: "u1",
		Name:       "Someone Else",
		Embedding:  vec(10),
	})
	var dup *models.DuplicateExternalIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "u1", dup.ExternalID)
	assert.Equal(t, "Person u1", dup.ExistingName)

	idents, err := store.ListIdentities(ctx)
	require.NoError(t, err)
	assert.Len(t, idents, 1)
}

func TestRegisterDuplicateBiometric(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	register(t, svc, "alice", 1.0)

	// Distance 0.1 from alice's vector, below the 0.4 duplicate threshold.
	_, err := svc.Register(ctx, RegisterParams{
		ExternalID: "bob",
		Name:       "Bob",
		Embedding:  vec(1.1),
	})
	var dup *models.DuplicateBiometricError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "alice", dup.ExistingExternalID)
	assert.Equal(t, "Person alice", dup.ExistingName)
	assert.InDelta(t, 1-0.1, dup.Similarity, 1e-6)

	// Distance 0.5 is outside the duplicate threshold: allowed.
	_, err = svc.Register(ctx, RegisterParams{
		ExternalID: "carol",
		Name:       "Carol",
		Embedding:  vec(1.5),
	})
	require.NoError(t, err)
}

func TestRegisterConcurrentSameExternalID(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, RegisterParams{
				ExternalID: "raced",
				Name:       "Raced",
				// Far apart so the biometric check never trips.
				Embedding: vec(float32(10 * (i + 1))),
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var dup *models.DuplicateExternalIDError
		require.ErrorAs(t, err, &dup, "losers must see DuplicateExternalIDError, got %v", err)
	}
	assert.Equal(t, 1, successes)

	idents, err := store.ListIdentities(ctx)
	require.NoError(t, err)
	assert.Len(t, idents, 1)
}

func TestMarkValidationWritesNoRecord(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	register(t, svc, "u1", 1)

	_, err := svc.Mark(ctx, MarkParams{Embedding: make([]float32, 12), LivenessScore: 0.9})
	var invalid *models.InvalidInputError
	require.ErrorAs(t, err, &invalid)

	_, err = svc.Mark(ctx, MarkParams{Embedding: vec(1), LivenessScore: 1.5})
	require.ErrorAs(t, err, &invalid)

	_, err = svc.Mark(ctx, MarkParams{Embedding: vec(1), LivenessScore: -0.1})
	require.ErrorAs(t, err, &invalid)

	assert.Zero(t, store.RecordCount())
}

func TestMarkLivenessRejectedSkipsQueryAndLedger(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	register(t, svc, "u1", 1)
	queriesAfterRegister := store.NeighborQueries

	_, err := svc.Mark(ctx, MarkParams{Embedding: vec(1), LivenessScore: 0.3})
	var lr *models.LivenessRejectedError
	require.ErrorAs(t, err, &lr)
	assert.Equal(t, 0.3, lr.Score)
	assert.Equal(t, 0.6, lr.Threshold)

	assert.Equal(t, queriesAfterRegister, store.NeighborQueries,
		"liveness failure must not query the similarity index")
	assert.Zero(t, store.RecordCount())
	assert.True(t, models.IsRejection(err))
}

func TestMarkEmptyStore(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.Mark(context.Background(), MarkParams{Embedding: vec(1), LivenessScore: 0.9})
	require.ErrorIs(t, err, models.ErrNoEnrolledIdentities)
	assert.Zero(t, store.RecordCount())
}

func TestMarkAccept(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	ident := register(t, svc, "u1", 1)

	res, err := svc.Mark(ctx, MarkParams{Embedding: vec(1), LivenessScore: 0.9})
	require.NoError(t, err)
	assert.Equal(t, "u1", res.ExternalID)
	assert.Equal(t, "Person u1", res.Name)
	assert.InDelta(t, 0.0, res.Distance, 1e-6)
	assert.InDelta(t, 1.0, res.Confidence, 1e-6)
	assert.Equal(t, 0.9, res.LivenessScore)

	recs, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "u1", recs[0].ClaimedExternalID)
	require.NotNil(t, recs[0].MatchedIdentityID)
	assert.Equal(t, ident.ID, *recs[0].MatchedIdentityID)
	assert.Equal(t, "Person u1", recs[0].MatchedName)
}

func TestMarkConfidenceFormula(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	register(t, svc, "u1", 1)

	// Distance exactly 0.2 with threshold 0.5 must give confidence 0.6.
	res, err := svc.Mark(ctx, MarkParams{Embedding: vec(1.2), LivenessScore: 0.9})
	require.NoError(t, err)
	assert.InDelta(t, 0.2, res.Distance, 1e-6)
	assert.InDelta(t, 0.6, res.Confidence, 1e-6)
}

func TestMarkNoMatchIsAudited(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	register(t, svc, "u1", 1)

	far := vec(3) // distance 2 from the enrolled vector

	for i := 0; i < 2; i++ {
		_, err := svc.Mark(ctx, MarkParams{Embedding: far, LivenessScore: 0.9})
		var nm *models.NoMatchError
		require.ErrorAs(t, err, &nm)
		assert.InDelta(t, 2.0, nm.Distance, 1e-6)
		assert.Equal(t, 0.5, nm.Threshold)
		assert.True(t, models.IsRejection(err))
	}

	// Each rejected attempt produced its own record.
	recs, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, models.UnknownExternalID, rec.ClaimedExternalID)
		assert.Nil(t, rec.MatchedIdentityID)
		assert.InDelta(t, 2.0, rec.Distance, 1e-6)
		assert.Empty(t, rec.MatchedName)
	}
	assert.NotEqual(t, recs[0].ID, recs[1].ID)
}

func TestFreshEnrollmentMatchesImmediately(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Mark(ctx, MarkParams{Embedding: vec(1), LivenessScore: 0.9})
	require.ErrorIs(t, err, models.ErrNoEnrolledIdentities)

	register(t, svc, "u1", 1)

	res, err := svc.Mark(ctx, MarkParams{Embedding: vec(1), LivenessScore: 0.9})
	require.NoError(t, err)
	assert.Equal(t, "u1", res.ExternalID)
}

func TestDeletedIdentityResolvesToAbsentName(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	ident := register(t, svc, "u1", 1)

	_, err := svc.Mark(ctx, MarkParams{Embedding: vec(1), LivenessScore: 0.9})
	require.NoError(t, err)

	_, err = store.DeleteIdentity(ctx, ident.ID)
	require.NoError(t, err)

	recs, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].MatchedName, "dangling reference must read as absent, not error")
	assert.Equal(t, "u1", recs[0].ClaimedExternalID)
}

func TestExportDateRange(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	register(t, svc, "u1", 1)

	_, err := svc.Mark(ctx, MarkParams{Embedding: vec(1), LivenessScore: 0.9})
	require.NoError(t, err)
	_, err = svc.Mark(ctx, MarkParams{Embedding: vec(5), LivenessScore: 0.9})
	var nm *models.NoMatchError
	require.ErrorAs(t, err, &nm)

	// Open-ended range covers everything, unmatched rows included.
	recs, err := svc.Export(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	// A range entirely in the past excludes today's records.
	recs, err = svc.Export(ctx, "2001-01-01", "2001-01-02")
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = svc.Export(ctx, "not-a-date", "")
	var invalid *models.InvalidInputError
	require.ErrorAs(t, err, &invalid)

	_, err = svc.Export(ctx, "2020-02-02", "2020-01-01")
	require.ErrorAs(t, err, &invalid)
}

func TestMarkCancelledContextWritesNothing(t *testing.T) {
	svc, store := newTestService()
	register(t, svc, "u1", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Mark(ctx, MarkParams{Embedding: vec(1), LivenessScore: 0.9})
	require.ErrorIs(t, err, models.ErrTimeout)
	assert.Zero(t, store.RecordCount())
}
