// Package testsupport builds throwaway configurations and stub executables
// for tests.
package testsupport
