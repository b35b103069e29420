// Package server implements the network side of linechat: TCP and WebSocket
// line transports, per-connection pumps, the hub that tracks connections and
// owns the shared chat registries, configuration, and logging setup.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, transports, routing, and HTTP handlers. The chat
// semantics themselves live in package chat.
package server
