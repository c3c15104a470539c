// Package runtime interprets dialog step tables.
//
// It is stateless: every call receives the current Session and returns the next
// one as a fresh copy, so a rejected input can never leak into stored state.
package runtime
