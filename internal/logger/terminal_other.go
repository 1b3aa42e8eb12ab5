//go:build !linux && !darwin

package logger

// Color output is only enabled on platforms where terminal detection is implemented.
func isTerminal(uintptr) bool {
	return false
}
