// Package render turns notifications and application status into message text.
//
// Templates use {name} placeholders. Substitution is a single pass, unknown
// placeholders are left as written, and rendering has no side effects.
package render
