// Package app wires the launcher license service together: it loads
// configuration, initializes logging and OpenTelemetry, builds the
// fingerprinting and license validation stack, and serves the local
// HTTP API and websocket event stream the launcher UI consumes.
//
// Construction order matters: the fingerprinter and store exist before
// the validator, and the websocket hub subscribes to the notifier
// before any validation can run, so no progress event is ever lost.
package app
