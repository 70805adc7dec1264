// Package api documents the pluginfamily admin HTTP API.
//
// The admin API is served by "pluginfamily serve" and exposes the plugin
// registry of the family package.
//
// # Endpoints
//
//   - GET  /plugins                     list registered plugin descriptors
//   - GET  /plugins/{code}              look up one descriptor
//   - POST /plugins/{code}/instantiate  construct a plugin with {args, kwargs}
//   - POST /plugins/reload              rebuild the index (rate limited)
//   - GET  /health, /healthz, /ready    liveness and readiness
//   - GET  /version                     build information
//   - GET  /metrics                     Prometheus metrics
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
//
// # Response format
//
// Every JSON endpoint except the health probes wraps its payload as
//
//	{"success": true, "data": {...}, "timestamp": "..."}
//
// and reports failures as
//
//	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}}
package api
