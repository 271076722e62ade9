// Package http contains the chi HTTP handlers of the launcher's license
// service: activation, session status, feature gating, health and
// metrics exposition. Handlers validate input, delegate to the services
// layer and map core validation errors to RFC 7807 problem responses.
package http
