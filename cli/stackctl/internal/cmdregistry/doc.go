// Package cmdregistry defines a lightweight command registry used by the CLI
// entrypoint. It maps command names to handler functions that accept a
// shared Context payload, so each command lives in its own package while
// main.go stays focused on global flags.
package cmdregistry
