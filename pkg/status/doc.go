// Package status defines the result codes returned by every fallible SDK
// operation and the helpers callers use to branch on them.
//
// The runtime service reports outcomes as codes rather than free-form
// errors, and the distinction between codes is load-bearing: a caller polls
// on Data_NoUpdate but must not poll on API_NotRegistered. The package
// therefore exposes one sentinel error per code so call sites can use
// errors.Is, plus the three-level data quality helpers (IsReliable,
// IsValid, IsAcceptable) for getters that return degraded-but-usable data.
package status
