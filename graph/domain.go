package graph

// Domain is a named partition cell. It owns
// exactly the paragraphs reachable by a membership edge P -> D.
type Domain struct {
	DomainID  string
	Name      string
	Centroid  []float64
	Size      int
	Neighbors []string // ordered domain_ids, nearest first
}

// ParagraphEmbedding pairs a paragraph_id with its embedding, the shape
// Repository.ListParagraphsWithEmbeddings streams.
type ParagraphEmbedding struct {
	ParagraphID string
	Embedding   []float64
}

// ScoredParagraph is one hit from a vector search over paragraph
// embeddings.
type ScoredParagraph struct {
	ParagraphID string
	Similarity  float64
}

// ScoredArticle is one hit from a vector search over article embeddings
// where present.
type ScoredArticle struct {
	ArticleID  string
	Similarity float64
}

// ScoredRelationship is one hit from a vector search over containment-edge
// embeddings.
type ScoredRelationship struct {
	ParentID   string
	ChildID    string
	ChildKind  NodeKind
	Similarity float64
}
