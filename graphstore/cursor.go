package graphstore

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/akfldk1028/ARR-sub002/graph"
)

// paragraphCursor adapts *sql.Rows to graph.ParagraphCursor.
type paragraphCursor struct {
	rows    *sql.Rows
	db      *gorm.DB
	current graph.ParagraphEmbedding
	err     error
}

func (c *paragraphCursor) Next(ctx context.Context) bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	var m ParagraphModel
	if err := c.db.ScanRows(c.rows, &m); err != nil {
		c.err = err
		return false
	}
	c.current = graph.ParagraphEmbedding{ParagraphID: m.ParagraphID, Embedding: m.Embedding}
	return true
}

func (c *paragraphCursor) Value() graph.ParagraphEmbedding { return c.current }

func (c *paragraphCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *paragraphCursor) Close() error { return c.rows.Close() }

var _ graph.ParagraphCursor = (*paragraphCursor)(nil)
