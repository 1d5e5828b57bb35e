// Package preflight provides readiness checks for the Cloudron API, the
// delivery channel, and the filesystem paths cloudronwatch depends on.
//
// The CLI "cloudronwatch check" command runs them all and exits non-zero when
// any fails. Checks never send a message and never acknowledge anything.
package preflight
