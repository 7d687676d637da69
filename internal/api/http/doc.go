// Package http provides the HTTP command surface of the bot.
//
// Endpoints:
//   - Health: / and /health
//   - Debug: POST /v1/debug (chat message JSON), POST /v1/debug/script (raw script text)
//   - Help: GET /v1/debug/help
//   - Capabilities: GET /v1/capabilities
//
// A script that fails still produces a report; the status code only reflects
// whether the request itself could be served.
//
// Example Usage:
//
//	handlers := http.NewHandlers(dispatcher, capabilities, pool, metrics, version)
//	handlers.Register(router)
package http
