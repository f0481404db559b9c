// Package server provides the optional risewatch status API.
//
// This package is internal to risewatch and handles all HTTP concerns:
//
//   - GET /api/status: JSON array of the latest snapshot per target
//   - GET /api/status/{target}: JSON snapshot for one target
//   - GET /api/sse: Server-Sent Events stream of snapshot updates
//
// The server shuts down gracefully when its context is cancelled, with a
// 5-second timeout for in-flight requests.
package server
