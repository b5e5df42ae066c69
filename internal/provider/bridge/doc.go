// Package bridge implements provider.Source and provider.Publisher against
// the HTTP sidecar that wraps the platform's private API. The daemon wires
// this adapter by default; everything platform-specific stays on the sidecar
// side of the wire.
package bridge
