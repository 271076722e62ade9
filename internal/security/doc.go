// Package security provides device fingerprinting and activation rate
// limiting for the launcher's license system.
//
// The fingerprint binds a license to one physical machine: five hardware
// identifiers are read independently, combined with a configured salt
// and hashed into a stable HWID. Individual read failures degrade to
// sentinel values rather than blocking licensing on flaky hardware
// queries.
package security
