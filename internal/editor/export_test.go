package editor

// WithClock is exported for tests that need deterministic timestamps.
var WithClock = withClock
