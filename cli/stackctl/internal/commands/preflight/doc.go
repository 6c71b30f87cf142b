// Package preflight implements the "preflight" host diagnostics command.
// It checks for git and docker (with the compose plugin), the workspace
// .env file, the LiteLLM variables and the configuration file.
package preflight
