package korerr

import (
	"errors"
	"fmt"
)

// Kind is a stable error-kind identifier surfaced to callers, distinct from
// the Go sentinel errors below (which carry the same identity for
// errors.Is matching but are not meant to be printed to users verbatim).
type Kind string

const (
	// KindEmbeddingUnavailable: the embedding provider could not produce a
	// vector for the query after retries. Aborts the query.
	KindEmbeddingUnavailable Kind = "embedding_unavailable"

	// KindRepositoryUnavailable: the graph store is unreachable. Aborts the
	// query and any in-flight rebalance.
	KindRepositoryUnavailable Kind = "repository_unavailable"

	// KindRateLimited: embedding or LLM rate limit exhausted after retries.
	KindRateLimited Kind = "rate_limited"

	// KindLLMUnreachable is internal-only: naming and self-assessment
	// recover locally and never abort the query.
	KindLLMUnreachable Kind = "llm_unreachable"

	// KindAgentDeadlineExceeded: a domain agent exceeded its soft deadline.
	// Recovered locally by the coordinator using partial results.
	KindAgentDeadlineExceeded Kind = "agent_deadline_exceeded"

	// KindCoordinatorDeadlineExceeded: the overall deadline was exceeded.
	KindCoordinatorDeadlineExceeded Kind = "coordinator_deadline_exceeded"

	// KindDimensionMismatch: an embedding with an unexpected vector length
	// was encountered. Fatal for the operation.
	KindDimensionMismatch Kind = "dimension_mismatch"

	// KindInvariantViolation: an operation would leave the partition
	// breaking a data-model invariant. Must not commit.
	KindInvariantViolation Kind = "invariant_violation"

	// KindEmptyCorpus: an admin initialize on a corpus with no embedded
	// paragraphs. Reported, not an error in the usual sense.
	KindEmptyCorpus Kind = "empty_corpus"
)

var (
	ErrEmbeddingUnavailable        = errors.New(string(KindEmbeddingUnavailable))
	ErrRepositoryUnavailable       = errors.New(string(KindRepositoryUnavailable))
	ErrRateLimited                 = errors.New(string(KindRateLimited))
	ErrLLMUnreachable              = errors.New(string(KindLLMUnreachable))
	ErrAgentDeadlineExceeded       = errors.New(string(KindAgentDeadlineExceeded))
	ErrCoordinatorDeadlineExceeded = errors.New(string(KindCoordinatorDeadlineExceeded))
	ErrDimensionMismatch           = errors.New(string(KindDimensionMismatch))
	ErrInvariantViolation          = errors.New(string(KindInvariantViolation))
	ErrEmptyCorpus                 = errors.New(string(KindEmptyCorpus))
)

var sentinelByKind = map[Kind]error{
	KindEmbeddingUnavailable:        ErrEmbeddingUnavailable,
	KindRepositoryUnavailable:       ErrRepositoryUnavailable,
	KindRateLimited:                 ErrRateLimited,
	KindLLMUnreachable:              ErrLLMUnreachable,
	KindAgentDeadlineExceeded:       ErrAgentDeadlineExceeded,
	KindCoordinatorDeadlineExceeded: ErrCoordinatorDeadlineExceeded,
	KindDimensionMismatch:           ErrDimensionMismatch,
	KindInvariantViolation:          ErrInvariantViolation,
	KindEmptyCorpus:                 ErrEmptyCorpus,
}

// Wrap attaches kind's sentinel to err so callers can errors.Is against the
// kind's exported sentinel while the message keeps the original detail.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	sentinel, ok := sentinelByKind[kind]
	if !ok {
		return err
	}
	return fmt.Errorf("%s: %w", err.Error(), sentinel)
}

// KindOf returns the first known Kind whose sentinel matches err via
// errors.Is, and false if err does not carry a recognized kind.
func KindOf(err error) (Kind, bool) {
	for kind, sentinel := range sentinelByKind {
		if errors.Is(err, sentinel) {
			return kind, true
		}
	}
	return "", false
}

// Fatal reports whether kind propagates to the caller and aborts the
// operation in progress, as opposed to kinds recovered locally.
func Fatal(kind Kind) bool {
	switch kind {
	case KindEmbeddingUnavailable, KindRepositoryUnavailable, KindDimensionMismatch, KindInvariantViolation:
		return true
	default:
		return false
	}
}
