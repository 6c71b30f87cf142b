// Package stackcmd registers the provisioning commands: sync, prepare, up,
// provision and patch.
//
// Each command takes optional stack names; with none it acts on every
// built-in stack in provisioning order.
package stackcmd
