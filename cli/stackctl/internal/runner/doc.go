// Package runner centralizes helpers that execute host and docker-compose commands.
//
// Every invocation carries its own working directory, so callers never change
// the process working directory to run git or docker inside a checkout. The
// Host runner keeps consistent dry-run logging and exit handling across the
// CLI; tests substitute runnertest.Recorder.
package runner
