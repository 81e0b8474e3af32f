// Package llm is the chat-completion boundary used for domain naming and
// routing self-assessment. It deliberately exposes a single-prompt Client
// rather than a full conversation API: the core asks short classification
// and summarization questions and never holds multi-turn state.
//
// Subpackages carry the resilience machinery applied at the external
// provider boundary: retry (exponential backoff), used by the graph store,
// the HTTP embedding provider and the LLM client, and circuitbreaker
// (closed/open/half-open), used by the LLM client.
package llm
