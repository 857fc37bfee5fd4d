package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepositorySaveIsUpsert(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()
	session := &domain.StreamSession{ID: "sess_1", Status: domain.StatusStarting, Title: "First"}

	require.NoError(t, repo.Save(ctx, session))
	session.Status = domain.StatusLive
	require.NoError(t, repo.Save(ctx, session))

	got, err := repo.GetByID(ctx, "sess_1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLive, got.Status)
}

func TestSessionRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &domain.StreamSession{ID: "sess_1", Title: "Original"}))

	got, err := repo.GetByID(ctx, "sess_1")
	require.NoError(t, err)
	got.Title = "Mutated"

	again, err := repo.GetByID(ctx, "sess_1")
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Title)
}

func TestSessionRepositoryGetMissing(t *testing.T) {
	repo := NewMemorySessionRepository()

	_, err := repo.GetByID(context.Background(), "sess_missing")

	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepositoryListActive(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &domain.StreamSession{ID: "sess_live", Status: domain.StatusLive}))
	require.NoError(t, repo.Save(ctx, &domain.StreamSession{ID: "sess_done", Status: domain.StatusEnded}))
	require.NoError(t, repo.Save(ctx, &domain.StreamSession{ID: "sess_err", Status: domain.StatusError}))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, domain.SessionID("sess_live"), active[0].ID)
}

func TestChatRepositoryRecentTail(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		require.NoError(t, repo.Append(ctx, &domain.ChatMessage{
			ID:        domain.MessageID(fmt.Sprintf("msg_%d", i)),
			SessionID: "sess_1",
			Content:   fmt.Sprintf("m%d", i),
		}))
	}

	recent, err := repo.Recent(ctx, "sess_1", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "m5", recent[0].Content)
	assert.Equal(t, "m7", recent[2].Content)

	all, err := repo.Recent(ctx, "sess_1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}

func TestChatRepositoryPurge(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, &domain.ChatMessage{ID: "msg_1", SessionID: "sess_1"}))

	require.NoError(t, repo.Purge(ctx, "sess_1"))

	recent, err := repo.Recent(ctx, "sess_1", 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestDonationRepositorySessionIndex(t *testing.T) {
	repo := NewMemoryDonationRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &domain.Donation{ID: "don_1", SessionID: "sess_1", Amount: 5}))
	require.NoError(t, repo.Save(ctx, &domain.Donation{ID: "don_2", SessionID: "sess_1", Amount: 10}))
	require.NoError(t, repo.Save(ctx, &domain.Donation{ID: "don_3", SessionID: "sess_2", Amount: 15}))

	list, err := repo.ListBySession(ctx, "sess_1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = repo.GetByID(ctx, "don_missing")
	assert.ErrorIs(t, err, domain.ErrDonationNotFound)
}

func TestDonationRepositoryStatusUpdate(t *testing.T) {
	repo := NewMemoryDonationRepository()
	ctx := context.Background()
	donation := &domain.Donation{ID: "don_1", SessionID: "sess_1", Status: domain.DonationPending}
	require.NoError(t, repo.Save(ctx, donation))

	donation.Status = domain.DonationCompleted
	require.NoError(t, repo.Save(ctx, donation))

	got, err := repo.GetByID(ctx, "don_1")
	require.NoError(t, err)
	assert.Equal(t, domain.DonationCompleted, got.Status)
}
