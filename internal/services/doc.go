// Package services contains the business layer between HTTP transport
// and the license validation core: rate limiting of activation attempts,
// session status reporting and trace-id propagation.
package services
