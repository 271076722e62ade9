// Package license implements license key validation and device-binding
// authorization for the GameLoop launcher.
//
// # Architecture Overview
//
// The package consists of several components:
//
//	- Key format validation: lexical checks on GL- license keys
//	- Binding evaluator: pure decision function mapping a license record
//	  and a device id to a binding status
//	- Store clients: read the remote license snapshot and request device
//	  activations (HTTP JSON document or Google Sheets backed)
//	- Validator: the activation coordinator driving the full flow
//	- Session: process-wide cache of the last authorized license
//	- Notifier: status and licensed/unlicensed event fan-out
//
// # Validation Flow
//
// A validation attempt runs these steps in order:
//
//	1. Reject empty keys and keys failing the lexical format check
//	2. Derive the stable device id (never fails outward)
//	3. Fetch the license snapshot from the remote store
//	4. Guard on record status and expiry before any binding decision
//	5. Evaluate the device binding
//	6. On CanActivate, request activation and re-run from step 3 once
//
// A second CanActivate after a successful activation indicates a
// remote-store inconsistency and is surfaced as an error, never retried.
//
// # Error Handling
//
// Expected business outcomes (not found, expired, device limit reached)
// are returned as *ValidationError values carrying a stable Code and a
// user-facing message; they are terminal for a single attempt. Only
// hardware reads recover locally, by substituting sentinel values.
//
// # Concurrency
//
// Validation attempts run independently; the Session is the only shared
// state and the last writer wins. Store fetches are bounded by the
// configured timeout and honor context cancellation.
package license
