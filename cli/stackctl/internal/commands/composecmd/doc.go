// Package composecmd covers the docker compose lifecycle commands that act
// on the compose files of already synced stacks: down, status and logs.
//
// Handlers are registered with the CLI command registry so `main.go` stays
// focused on argument parsing.
package composecmd
