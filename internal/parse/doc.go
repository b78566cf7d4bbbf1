// Package parse turns free-form, multilingual reminder requests into concrete
// schedule times.
//
// Parse is a total function: whatever the input, it returns a usable
// ParsedReminder. Strategies are tried in order (AI-assisted, then per-language
// pattern tables); when every tier fails the result is a one-hour default with
// minimal confidence. Relative offsets are resolved against the call time, so
// identical inputs parsed later yield later absolute times, but the offset
// arithmetic itself is deterministic.
package parse
