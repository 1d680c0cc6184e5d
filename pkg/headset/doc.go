// Package headset implements the GazeLink client: capability
// registration, frame fetching and cached reads, blocking frame waits,
// calibration control, gazable object registration, and profile and
// config access.
//
// A Headset is created detached. Capability and scene registrations are
// accepted immediately and replayed to the service when Connect
// establishes a session. Frame data moves in two steps: a Fetch call
// copies the newest service-side frame into the client cache, and
// getters read the cache only. Repeated reads between fetches therefore
// observe one consistent frame.
//
// The Service interface is the boundary to the runtime. Package sim
// provides an in-process implementation for development and tests.
package headset
