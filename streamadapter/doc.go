// Package streamadapter bridges coordinator progress events onto a
// WebSocket. The event struct and its JSON shape belong to the core; this
// adapter only frames them. A stream always terminates with exactly one
// complete or error frame.
package streamadapter
