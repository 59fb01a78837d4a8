package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) *MemoryRepository {
	t.Helper()
	return NewMemoryRepository(zap.NewNop())
}

func TestMemoryRepository_SubscriberCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	data := &SubscriberData{
		SUPI:      "imsi-001010000000099",
		SUPIType:  "imsi",
		PLMNIDmcc: "001",
		PLMNIDmnc: "01",
		NSSAI:     []SNSSAI{{SST: 1, SD: "010203"}},
	}
	require.NoError(t, repo.CreateSubscriber(ctx, data))

	got, err := repo.GetSubscriber(ctx, data.SUPI)
	require.NoError(t, err)
	assert.Equal(t, data.SUPI, got.SUPI)
	assert.Len(t, got.NSSAI, 1)

	_, err = repo.GetSubscriber(ctx, "imsi-999999999999999")
	assert.Error(t, err)

	require.NoError(t, repo.DeleteSubscriber(ctx, data.SUPI))
	_, err = repo.GetSubscriber(ctx, data.SUPI)
	assert.Error(t, err)
}

func TestMemoryRepository_AuthenticationSubscriptionSQN(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	supi := "imsi-001010000000099"
	require.NoError(t, repo.CreateAuthenticationSubscription(ctx, &AuthenticationSubscription{
		SUPI:         supi,
		PermanentKey: "00112233445566778899aabbccddeeff",
		SQN:          0,
	}))

	sqn, err := repo.IncrementSQN(ctx, supi)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sqn)

	sqn, err = repo.IncrementSQN(ctx, supi)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), sqn)

	_, err = repo.IncrementSQN(ctx, "imsi-000000000000000")
	assert.Error(t, err)
}

func TestMemoryRepository_SMSubscriptionKeyedByDNN(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	supi := "imsi-001010000000099"
	require.NoError(t, repo.CreateSMSubscription(ctx, &SessionManagementSubscriptionData{
		SUPI: supi,
		DNN:  "internet",
	}))
	require.NoError(t, repo.CreateSMSubscription(ctx, &SessionManagementSubscriptionData{
		SUPI: supi,
		DNN:  "ims",
	}))

	got, err := repo.GetSMSubscription(ctx, supi, "internet")
	require.NoError(t, err)
	assert.Equal(t, "internet", got.DNN)

	_, err = repo.GetSMSubscription(ctx, supi, "unknown-dnn")
	assert.Error(t, err)

	all, err := repo.ListSMSubscriptions(ctx, supi)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSeedDefaultSubscriber_IsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, SeedDefaultSubscriber(ctx, repo))
	first, err := repo.GetSubscriber(ctx, "imsi-001010000000001")
	require.NoError(t, err)

	require.NoError(t, SeedDefaultSubscriber(ctx, repo))
	second, err := repo.GetSubscriber(ctx, "imsi-001010000000001")
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	sm, err := repo.GetSMSubscription(ctx, "imsi-001010000000001", "internet")
	require.NoError(t, err)
	assert.Equal(t, 9, sm.Default5QI)
}
