package graphstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/akfldk1028/ARR-sub002/graph"
	"github.com/akfldk1028/ARR-sub002/korerr"
	"github.com/akfldk1028/ARR-sub002/vectormath"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	// Every new connection to :memory: is a distinct database; pin the
	// pool to one connection so the schema is visible everywhere.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(AllModels()...))
	return db
}

func unit(components ...float64) []float64 {
	return vectormath.Normalize(components)
}

// seedStatute inserts a statute with a few embedded paragraphs under one
// article and returns the paragraph ids.
func seedStatute(t *testing.T, db *gorm.DB, kind graph.StatuteKind, articleNumber string, vecs ...[]float64) []string {
	t.Helper()
	statuteID := string(kind)
	require.NoError(t, db.Save(&StatuteModel{StatuteID: statuteID, Kind: string(kind), Title: "테스트 법령"}).Error)
	articleID := statuteID + ":" + articleNumber
	require.NoError(t, db.Save(&ArticleModel{
		ArticleID: articleID, StatuteID: statuteID, Number: articleNumber, Title: "조문",
	}).Error)

	var ids []string
	for i, vec := range vecs {
		pid := graph.EncodeParagraphID(kind, articleNumber, fmt.Sprintf("%d", i+1))
		require.NoError(t, db.Save(&ParagraphModel{
			ParagraphID: pid, ArticleID: articleID, Content: "본문", Embedding: vec,
		}).Error)
		require.NoError(t, db.Save(&ContainmentEdgeModel{
			ParentID: articleID, ParentKind: string(graph.NodeArticle),
			ChildID: pid, ChildKind: string(graph.NodeParagraph),
		}).Error)
		ids = append(ids, pid)
	}
	return ids
}

func TestStore_ParagraphVectorSearchRespectsDomainFilter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := seedStatute(t, db, graph.KindAct, "36", unit(1, 0, 0), unit(0.9, 0.44, 0))
	b := seedStatute(t, db, graph.KindEnforcementDecree, "36", unit(0.95, 0.31, 0))

	store, err := New(ctx, db, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.SetMembership(ctx, a[0], "dom-a"))
	require.NoError(t, store.SetMembership(ctx, a[1], "dom-a"))
	require.NoError(t, store.SetMembership(ctx, b[0], "dom-b"))

	all, err := store.ParagraphVectorSearch(ctx, unit(1, 0, 0), 10, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	// Highest similarity first.
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Similarity, all[i].Similarity)
	}

	filtered, err := store.ParagraphVectorSearch(ctx, unit(1, 0, 0), 10, "dom-a")
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, h := range filtered {
		assert.Contains(t, a, h.ParagraphID)
	}
}

func TestStore_ExactMatchFindsEveryStatuteKind(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedStatute(t, db, graph.KindAct, "36", unit(1, 0, 0))
	seedStatute(t, db, graph.KindEnforcementDecree, "36", unit(0, 1, 0))
	seedStatute(t, db, graph.KindAct, "12", unit(0, 0, 1))

	store, err := New(ctx, db, zap.NewNop())
	require.NoError(t, err)

	ids, err := store.ExactMatch(ctx, "36")
	require.NoError(t, err)
	require.Len(t, ids, 2)
	for _, id := range ids {
		decoded, err := graph.DecodeParagraphID(id)
		require.NoError(t, err)
		assert.Equal(t, "36", decoded.ArticleNumber)
	}
}

func TestStore_CursorStreamsEveryEmbeddedParagraph(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ids := seedStatute(t, db, graph.KindAct, "1", unit(1, 0, 0), unit(0, 1, 0), unit(0, 0, 1))

	store, err := New(ctx, db, zap.NewNop())
	require.NoError(t, err)

	cursor, err := store.ListParagraphsWithEmbeddings(ctx)
	require.NoError(t, err)
	defer cursor.Close()

	seen := map[string]int{}
	for cursor.Next(ctx) {
		pe := cursor.Value()
		seen[pe.ParagraphID]++
		assert.Len(t, pe.Embedding, 3)
	}
	require.NoError(t, cursor.Err())
	require.Len(t, seen, len(ids))

	// Restartable: a fresh cursor yields the same rows again.
	again, err := store.ListParagraphsWithEmbeddings(ctx)
	require.NoError(t, err)
	defer again.Close()
	count := 0
	for again.Next(ctx) {
		count++
	}
	assert.Equal(t, len(ids), count)
}

func TestStore_NeighborsOfParagraph(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ids := seedStatute(t, db, graph.KindAct, "5", unit(1, 0, 0), unit(0, 1, 0))
	other := seedStatute(t, db, graph.KindEnforcementDecree, "9", unit(0, 0, 1))
	require.NoError(t, db.Save(&CitationEdgeModel{
		FromParagraphID: ids[0], ToID: other[0], ToKind: string(graph.NodeParagraph),
		CitationKind: string(graph.CitationCrossStatute),
	}).Error)

	store, err := New(ctx, db, zap.NewNop())
	require.NoError(t, err)

	neighbors, err := store.NeighborsOf(ctx, ids[0], graph.NodeParagraph)
	require.NoError(t, err)

	byRelation := map[graph.RelationLabel][]string{}
	for _, n := range neighbors {
		byRelation[n.Relation] = append(byRelation[n.Relation], n.NeighborID)
	}
	assert.Contains(t, byRelation[graph.RelationContainmentParent], "act:5")
	assert.Contains(t, byRelation[graph.RelationSibling], ids[1])
	assert.Contains(t, byRelation[graph.RelationCitation], other[0])
}

func TestStore_RelationshipVectorSearch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ids := seedStatute(t, db, graph.KindAct, "7", unit(1, 0, 0))
	require.NoError(t, db.Save(&ContainmentEdgeModel{
		ParentID: "act:7", ParentKind: string(graph.NodeArticle),
		ChildID: ids[0], ChildKind: string(graph.NodeParagraph),
		Embedding: unit(0.9, 0.44, 0), HasEmbedding: true,
	}).Error)

	store, err := New(ctx, db, zap.NewNop())
	require.NoError(t, err)

	hits, err := store.RelationshipVectorSearch(ctx, unit(1, 0, 0), 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, ids[0], hits[0].ChildID)
	assert.Equal(t, graph.NodeParagraph, hits[0].ChildKind)
	assert.InDelta(t, 0.9, hits[0].Similarity, 0.01)
}

func TestStore_TransactionRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ids := seedStatute(t, db, graph.KindAct, "8", unit(1, 0, 0))

	store, err := New(ctx, db, zap.NewNop())
	require.NoError(t, err)

	boom := errors.New("validation failed")
	err = store.WithinTransaction(ctx, func(ctx context.Context, tx graph.Repository) error {
		require.NoError(t, tx.UpsertDomain(ctx, "doomed", "이름", unit(1, 0, 0), 1, nil))
		require.NoError(t, tx.SetMembership(ctx, ids[0], "doomed"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, ok, err := store.GetDomain(ctx, "doomed")
	require.NoError(t, err)
	assert.False(t, ok, "rolled-back domain must not be visible")
	members, err := store.ParagraphsInDomain(ctx, "doomed")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestStore_DomainRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store, err := New(ctx, db, zap.NewNop())
	require.NoError(t, err)

	centroid := unit(0.6, 0.8, 0)
	require.NoError(t, store.UpsertDomain(ctx, "dom-1", "도시계획", centroid, 7, []string{"dom-2"}))

	got, ok, err := store.GetDomain(ctx, "dom-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "도시계획", got.Name)
	assert.Equal(t, 7, got.Size)
	assert.Equal(t, []string{"dom-2"}, got.Neighbors)
	for i := range centroid {
		assert.InDelta(t, centroid[i], got.Centroid[i], 1e-12)
	}

	require.NoError(t, store.DeleteDomain(ctx, "dom-1"))
	_, ok, err = store.GetDomain(ctx, "dom-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_UnreachableDatabaseSurfacesRepositoryUnavailable(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store, err := New(ctx, db, zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = store.ParagraphsInDomain(ctx, "any")
	require.Error(t, err)
	assert.ErrorIs(t, err, korerr.ErrRepositoryUnavailable)
}
