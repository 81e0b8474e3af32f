package agent

import (
	"sort"

	"github.com/akfldk1028/ARR-sub002/graph"
)

// Stage names the pipeline sub-step that produced a candidate.
const (
	StageExact              = "exact"
	StageParagraphVector    = "paragraph_vector"
	StageArticleVector      = "article_vector"
	StageRelationshipVector = "relationship_vector"
	StageExpansion          = "expansion"
	StageCollaboration      = "collaboration"
)

// Record is one ranked search hit with display provenance.
type Record struct {
	ParagraphID     string            `json:"paragraph_id"`
	Content         string            `json:"content"`
	StatuteKind     graph.StatuteKind `json:"statute_kind"`
	ArticleNumber   string            `json:"article_number"`
	ParagraphNumber string            `json:"paragraph_number,omitempty"`
	Score           float64           `json:"score"`
	Stages          []string          `json:"stages"`
	SourceDomain    string            `json:"source_domain"`
}

// Result is the outcome of one domain agent search.
type Result struct {
	DomainID   string
	Records    []Record
	Confidence float64
	Consulted  []string // neighbor domain ids merged in, empty when no A2A ran
}

// Progress event names, emitted at the boundaries between pipeline steps.
const (
	EventExactMatch         = "exact_match"
	EventParagraphVector    = "paragraph_vector"
	EventRelationshipVector = "relationship_vector"
	EventExpansion          = "expansion"
	EventCollaboration      = "collaboration"
	EventComplete           = "complete"
)

// ProgressFunc receives pipeline progress events. May be nil.
type ProgressFunc func(event string)

// candidate accumulates a paragraph's per-stage scores during one search.
type candidate struct {
	id     string
	stages map[string]float64 // raw score per contributing stage
	source string             // "" for local hits, "neighbor_domain" for out-of-domain expansion hits, "neighbor_domain_<id>" for consultation results
	fused  float64
}

func (c *candidate) stageNames() []string {
	out := make([]string, 0, len(c.stages))
	for s := range c.stages {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// candidateSet is the working pool of one search.
type candidateSet map[string]*candidate

func (cs candidateSet) add(id, stage string, score float64) *candidate {
	c, ok := cs[id]
	if !ok {
		c = &candidate{id: id, stages: map[string]float64{}}
		cs[id] = c
	}
	if prev, exists := c.stages[stage]; !exists || score > prev {
		c.stages[stage] = score
	}
	return c
}
