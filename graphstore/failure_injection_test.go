package graphstore

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/akfldk1028/ARR-sub002/korerr"
)

// openMockDB wires GORM's postgres dialector over a sqlmock connection so
// individual queries can be failed deterministically.
func openMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestStore_QueryFailureSurfacesAsRepositoryUnavailable(t *testing.T) {
	db, mock := openMockDB(t)

	// Index warm-up succeeds over empty tables.
	emptyParagraphs := sqlmock.NewRows([]string{"paragraph_id", "article_id", "content", "embedding"})
	emptyArticles := sqlmock.NewRows([]string{"article_id", "statute_id", "number", "title", "parent_article_id", "embedding", "has_embedding"})
	emptyEdges := sqlmock.NewRows([]string{"id", "parent_id", "parent_kind", "child_id", "child_kind", "embedding", "has_embedding"})
	mock.ExpectQuery(`SELECT \* FROM "paragraphs"`).WillReturnRows(emptyParagraphs)
	mock.ExpectQuery(`SELECT \* FROM "articles"`).WillReturnRows(emptyArticles)
	mock.ExpectQuery(`SELECT \* FROM "containment_edges"`).WillReturnRows(emptyEdges)

	store, err := New(context.Background(), db, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT "paragraph_id" FROM "memberships"`).
		WillReturnError(assert.AnError)

	_, err = store.ParagraphsInDomain(context.Background(), "dom-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, korerr.ErrRepositoryUnavailable,
		"transport failures carry the repository_unavailable kind so callers can classify and retry")
}

func TestStore_WarmupFailureAbortsConstruction(t *testing.T) {
	db, mock := openMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "paragraphs"`).WillReturnError(assert.AnError)

	_, err := New(context.Background(), db, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, korerr.ErrRepositoryUnavailable)
}
