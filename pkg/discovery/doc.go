// Package discovery announces and finds GazeLink runtimes on the local
// network via mDNS.
//
// A runtime advertises itself as a "_gazelink._tcp" service. The TXT
// records carry the runtime version, hardware model and capability set,
// so that a client can pick a compatible runtime before connecting.
//
// The Advertiser side runs inside the runtime process; the Browser side
// runs in clients. Both are backed by zeroconf.
package discovery
