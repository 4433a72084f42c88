package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groweasy-agent/internal/common/logger"
	"groweasy-agent/internal/models"
)

func TestConversationRepo_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO conversations").
		WithArgs("lead-1", "user", "I want a villa", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewConversationRepo(db, logger.NewTestLogger(t))
	require.NoError(t, repo.Append(context.Background(), "lead-1", models.RoleUser, "I want a villa"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepo_AppendTruncatesLongContent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	long := strings.Repeat("a", models.MaxTurnContentLength+100)

	mock.ExpectExec("INSERT INTO conversations").
		WithArgs("lead-1", "agent", long[:models.MaxTurnContentLength], sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewConversationRepo(db, logger.NewTestLogger(t))
	require.NoError(t, repo.Append(context.Background(), "lead-1", models.RoleAgent, long))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepo_HistoryOrdered(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	base := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "lead_id", "role", "content", "created_at"}).
		AddRow(1, "lead-1", "agent", "Which neighborhood are you interested in?", base).
		AddRow(2, "lead-1", "user", "Baner", base.Add(time.Second))

	mock.ExpectQuery("SELECT (.+) FROM conversations").
		WithArgs("lead-1").
		WillReturnRows(rows)

	repo := NewConversationRepo(db, logger.NewTestLogger(t))
	history, err := repo.History(context.Background(), "lead-1")
	require.NoError(t, err)

	require.Len(t, history, 2)
	assert.Equal(t, models.RoleAgent, history[0].Role)
	assert.Equal(t, models.RoleUser, history[1].Role)
	assert.Equal(t, "Baner", history[1].Content)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepo_HistoryEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM conversations").
		WithArgs("lead-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "role", "content", "created_at"}))

	repo := NewConversationRepo(db, logger.NewTestLogger(t))
	history, err := repo.History(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.NoError(t, mock.ExpectationsWereMet())
}
