package coordinator

import "github.com/akfldk1028/ARR-sub002/agent"

// Event statuses.
const (
	StatusStarted    = "started"
	StatusSearching  = "searching"
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusError      = "error"
)

// AgentInfo identifies the domain agent an event concerns.
type AgentInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
}

// Event is one streamed progress frame. A stream always terminates with
// exactly one complete or error event.
type Event struct {
	Status       string         `json:"status"`
	Stage        string         `json:"stage,omitempty"`
	Progress     *float64       `json:"progress,omitempty"`
	Agent        *AgentInfo     `json:"agent,omitempty"`
	Results      []agent.Record `json:"results,omitempty"`
	Message      string         `json:"message,omitempty"`
	ResponseTime *int64         `json:"response_time,omitempty"`
	ActiveAgents []string       `json:"active_agents,omitempty"`
}

// EventFunc receives progress events in order. May be nil.
type EventFunc func(Event)

func progressEvent(status, stage string, fraction float64, info *AgentInfo) Event {
	p := fraction
	return Event{Status: status, Stage: stage, Progress: &p, Agent: info}
}

// DomainInfo is the primary-domain echo in the synchronous result.
type DomainInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QueryResult is the synchronous result shape.
type QueryResult struct {
	Results             []agent.Record `json:"results"`
	PrimaryDomain       DomainInfo     `json:"primary_domain"`
	CollaboratedDomains []string       `json:"collaborated_domains"`
	ResponseTimeMS      int64          `json:"response_time_ms"`
	TotalMatched        int            `json:"total_matched"`
}
