// Package cloudron is a small client for the Cloudron management API.
//
// It lists notifications (sorted oldest first), lists application status, and
// acknowledges notifications. Failures are tagged with services markers:
// ErrAuthentication for 401/403, ErrNetwork for transport and other non-2xx
// responses, ErrProtocol for undecodable bodies.
package cloudron
