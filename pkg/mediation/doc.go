// Package mediation implements ports.Mediator.
//
// Canned is a deterministic stand-in that rotates through fixed supportive
// replies. LLM drives an eino chain (prompt template plus chat model) and
// NewArkChain builds that chain on a Volcengine Ark model. Throttle limits how
// often the mediator speaks in a group chat.
//
// Every implementation flags escalation when the message looks like a crisis,
// see Detect.
package mediation
