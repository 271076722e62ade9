// Package store implements the admin-side license database: the JSON
// document published to launchers as their read-only snapshot, plus the
// issuing operations (create, revoke, extend, blacklist) the licadmin
// tool exposes. The document is written atomically and carries an HMAC
// signature sidecar so tampering with the published file is detectable.
package store
