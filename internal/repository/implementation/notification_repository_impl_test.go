package implementation

import (
	"context"
	"os"
	"testing"
	"time"

	"network-orchestrator-be/internal/model"
	"network-orchestrator-be/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository(t *testing.T) {
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("DB_CONNECTION_STRING not set")
	}
	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Notification{}))

	ctxID := "repo-test-" + uuid.NewString()
	t.Cleanup(func() {
		db.Where("context_id = ?", ctxID).Delete(&model.Notification{})
	})

	repo := NewNotificationRepository(db)
	ctx := context.Background()
	base := time.Now().Add(-time.Minute)
	for i, kind := range []string{"PREPARE_FALLBACK", "DISPLAY_FALLBACK", "SIGNAL_RESTORED"} {
		require.NoError(t, repo.CreateNotification(ctx, &model.Notification{
			ID:        uuid.New(),
			ContextID: ctxID,
			Kind:      kind,
			State:     "WARNING",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	page, total, err := repo.GetNotificationsByContextID(ctx, ctxID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "SIGNAL_RESTORED", page[0].Kind)

	page, _, err = repo.GetNotificationsByContextID(ctx, ctxID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "PREPARE_FALLBACK", page[0].Kind)
}
