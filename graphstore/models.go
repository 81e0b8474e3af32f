package graphstore

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// FloatVector adapts []float64 to a GORM/database column by round-tripping
// through JSON; both the postgres and sqlite drivers this store supports
// accept a JSON/TEXT column uniformly, avoiding a dialect-specific vector
// extension neither the postgres nor the sqlite driver in this module's
// dependency set installs by default.
type FloatVector []float64

func (v FloatVector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal([]float64(v))
}

func (v *FloatVector) Scan(src interface{}) error {
	if src == nil {
		*v = nil
		return nil
	}
	var raw []byte
	switch s := src.(type) {
	case []byte:
		raw = s
	case string:
		raw = []byte(s)
	default:
		return errors.New("graphstore: unsupported FloatVector scan source")
	}
	if len(raw) == 0 {
		*v = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]float64)(v))
}

// StringSlice adapts []string (domain neighbor lists) the same way.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal([]string(s))
}

func (s *StringSlice) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("graphstore: unsupported StringSlice scan source")
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(s))
}

// StatuteModel is the GORM row for a top-level legal document.
type StatuteModel struct {
	StatuteID string `gorm:"primaryKey;column:statute_id"`
	Kind      string `gorm:"column:kind;index"`
	Title     string `gorm:"column:title"`
}

func (StatuteModel) TableName() string { return "statutes" }

// ArticleModel is the GORM row for an article (or sub-article).
type ArticleModel struct {
	ArticleID       string      `gorm:"primaryKey;column:article_id"`
	StatuteID       string      `gorm:"column:statute_id;index"`
	Number          string      `gorm:"column:number;index"`
	Title           string      `gorm:"column:title"`
	ParentArticleID string      `gorm:"column:parent_article_id;index"`
	Embedding       FloatVector `gorm:"column:embedding;type:text"`
	HasEmbedding    bool        `gorm:"column:has_embedding;index"`
}

func (ArticleModel) TableName() string { return "articles" }

// ParagraphModel is the GORM row for a leaf content-bearing paragraph.
type ParagraphModel struct {
	ParagraphID string      `gorm:"primaryKey;column:paragraph_id"`
	ArticleID   string      `gorm:"column:article_id;index"`
	Content     string      `gorm:"column:content"`
	Embedding   FloatVector `gorm:"column:embedding;type:text"`
}

func (ParagraphModel) TableName() string { return "paragraphs" }

// ItemModel is the GORM row for a paragraph's semantic sub-point.
type ItemModel struct {
	ItemID      string `gorm:"primaryKey;column:item_id"`
	ParagraphID string `gorm:"column:paragraph_id;index"`
	Content     string `gorm:"column:content"`
}

func (ItemModel) TableName() string { return "items" }

// ContainmentEdgeModel is the GORM row for a parent->child containment edge.
type ContainmentEdgeModel struct {
	ID           uint        `gorm:"primaryKey;autoIncrement"`
	ParentID     string      `gorm:"column:parent_id;index"`
	ParentKind   string      `gorm:"column:parent_kind"`
	ChildID      string      `gorm:"column:child_id;index"`
	ChildKind    string      `gorm:"column:child_kind"`
	Embedding    FloatVector `gorm:"column:embedding;type:text"`
	HasEmbedding bool        `gorm:"column:has_embedding;index"`
}

func (ContainmentEdgeModel) TableName() string { return "containment_edges" }

// CitationEdgeModel is the GORM row for a P -> {A|P|S} citation edge.
type CitationEdgeModel struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	FromParagraphID string `gorm:"column:from_paragraph_id;index"`
	ToID            string `gorm:"column:to_id;index"`
	ToKind          string `gorm:"column:to_kind"`
	CitationKind    string `gorm:"column:citation_kind"`
}

func (CitationEdgeModel) TableName() string { return "citation_edges" }

// SequenceEdgeModel is the GORM row linking a sibling to its next sibling.
type SequenceEdgeModel struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	FromID   string `gorm:"column:from_id;index"`
	FromKind string `gorm:"column:from_kind"`
	ToID     string `gorm:"column:to_id"`
	ToKind   string `gorm:"column:to_kind"`
}

func (SequenceEdgeModel) TableName() string { return "sequence_edges" }

// DomainModel is the GORM row for a partition cell's metadata.
type DomainModel struct {
	DomainID  string      `gorm:"primaryKey;column:domain_id"`
	Name      string      `gorm:"column:name"`
	Centroid  FloatVector `gorm:"column:centroid;type:text"`
	Size      int         `gorm:"column:size"`
	Neighbors StringSlice `gorm:"column:neighbors;type:text"`
	UpdatedAt time.Time   `gorm:"column:updated_at"`
}

func (DomainModel) TableName() string { return "domains" }

// MembershipModel is the GORM row for a single P -> D membership edge.
// ParagraphID is the primary key: an embedded paragraph has exactly one
// membership edge.
type MembershipModel struct {
	ParagraphID string `gorm:"primaryKey;column:paragraph_id"`
	DomainID    string `gorm:"column:domain_id;index"`
}

func (MembershipModel) TableName() string { return "memberships" }

// AllModels lists every table graphstore owns, used by migrations and by
// AutoMigrate in tests.
func AllModels() []interface{} {
	return []interface{}{
		&StatuteModel{},
		&ArticleModel{},
		&ParagraphModel{},
		&ItemModel{},
		&ContainmentEdgeModel{},
		&CitationEdgeModel{},
		&SequenceEdgeModel{},
		&DomainModel{},
		&MembershipModel{},
	}
}
