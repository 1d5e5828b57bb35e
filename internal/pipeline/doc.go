// Package pipeline drives one run: take the run lock, fetch app status and
// notifications, deliver a message for every app that needs attention and every
// unacknowledged notification, acknowledge what was delivered, release the
// lock. It is strictly sequential.
//
// A notification is acknowledged only after its message was delivered in the
// same run. Fetch failures abort before any delivery; delivery and
// acknowledge failures are counted and the run continues.
package pipeline
