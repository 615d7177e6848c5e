// Package websocket pushes session events to browser clients.
//
// A Hub owns the set of connected clients. Each Client subscribes to a
// single analysis session and only receives that session's events, as
// JSON encoded events.Message frames. Clients are kept alive with
// ping/pong frames at the configured period.
package websocket
