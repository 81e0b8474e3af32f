package graph

// StatuteKind distinguishes the three tiers of Korean statutory text that
// can share an article number yet remain distinct entities.
type StatuteKind string

const (
	KindAct                StatuteKind = "act"
	KindEnforcementDecree  StatuteKind = "enforcement-decree"
	KindEnforcementRule    StatuteKind = "enforcement-rule"
)

// Statute is a top-level legal document.
type Statute struct {
	StatuteID string
	Kind      StatuteKind
	Title     string
}

// Article is a node in a statute's article tree; it may itself carry an
// embedding derived from its title and a summary of its paragraphs,
// served by article-vector search; callers must not assume every
// article has one.
type Article struct {
	ArticleID        string
	StatuteID        string
	Number           string
	Title            string
	ParentArticleID  string // empty for top-level articles
	Embedding        []float64
	HasEmbedding     bool
}

// Paragraph is the leaf-level content-bearing unit. Embedding is
// required; the core does not operate on
// paragraphs without one.
type Paragraph struct {
	ParagraphID string
	ArticleID   string
	Content     string
	Embedding   []float64
}

// Item is a semantic sub-point of a paragraph. Items are never searched
// directly; they exist only so containment edges down to them can be
// walked during graph expansion.
type Item struct {
	ItemID      string
	ParagraphID string
	Content     string
}

// ContainmentEdge is a directed parent -> child edge in the document
// hierarchy (S->A, A->A, A->P, P->Item). It may carry an edge embedding
// representing the semantic parent-child relation.
type ContainmentEdge struct {
	ParentID     string
	ParentKind   NodeKind
	ChildID      string
	ChildKind    NodeKind
	Embedding    []float64
	HasEmbedding bool
}

// CitationEdge is a directed P -> {A|P|S} edge.
type CitationEdge struct {
	FromParagraphID string
	ToID            string
	ToKind          NodeKind
	CitationKind    CitationKind
}

// CitationKind classifies why a paragraph cites another node.
type CitationKind string

const (
	CitationInternal      CitationKind = "internal"
	CitationCrossStatute  CitationKind = "cross-statute"
	CitationExternal      CitationKind = "external-reference"
)

// SequenceEdge links a sibling node to its next sibling at any level.
type SequenceEdge struct {
	FromID   string
	FromKind NodeKind
	ToID     string
	ToKind   NodeKind
}

// NodeKind identifies which node table a graph identifier belongs to.
type NodeKind string

const (
	NodeStatute   NodeKind = "statute"
	NodeArticle   NodeKind = "article"
	NodeParagraph NodeKind = "paragraph"
	NodeItem      NodeKind = "item"
)

// Neighbor is one edge-reachable node returned by Repository.NeighborsOf.
type Neighbor struct {
	NeighborID   string
	NeighborKind NodeKind
	Relation     RelationLabel
}

// RelationLabel names the kind of edge a Neighbor was reached through,
// used by the bounded graph walk to price traversal.
type RelationLabel string

const (
	RelationContainmentParent RelationLabel = "containment_parent"
	RelationContainmentChild  RelationLabel = "containment_child"
	RelationSibling           RelationLabel = "sibling"
	RelationCitation          RelationLabel = "citation"
)
