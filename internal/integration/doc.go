// Package integration holds end-to-end tests that run the license
// client against an in-process emulation of the hosted license store.
package integration
