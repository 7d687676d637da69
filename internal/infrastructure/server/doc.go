// Package server wires configuration, the sandbox pool, the capability
// registry and the dispatcher into the HTTP and Telegram surfaces.
package server
