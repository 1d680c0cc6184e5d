// Package sim provides an in-process GazeLink runtime for development
// and tests. It implements both headset.Service and compositor.Service
// with deterministic, clock-driven data: each Step call advances the
// simulated tracking clock and produces one frame per data domain that
// has at least one active capability registration.
//
// Tests drive the clock explicitly with Step. Long-running programs can
// use Run, which steps on a wall-clock ticker until the context ends.
package sim
