// Package api implements the operator HTTP API and WebSocket stream.
//
// Endpoints (all under /api/v1):
//
//	GET  /health          component probes and bridge health; 503 when degraded
//	GET  /metrics         runtime, WebSocket and bridge counters
//	GET  /session         cloud session state and expiry, never tokens
//	POST /session/logout  end the cloud session (the next poll logs in again)
//	GET  /devices         last known state of every unit
//	GET  /devices/{addr}  one unit
//	GET  /ws              WebSocket; subscribe to "device.state_changed"
//
// The hub is created before the bridge so state changes flow
// bridge → Hub.DeviceStateChanged → subscribed clients.
//
// The server has no authentication and binds to 127.0.0.1 by default.
// Expose it beyond the host only behind a reverse proxy that authenticates.
package api
