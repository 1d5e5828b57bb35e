// Package deps checks that the external programs a delivery command needs are
// installed.
package deps
