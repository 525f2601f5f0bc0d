package utils

import (
	"errors"
	"syscall"
)

// IsTransient checks if the error indicates a temporary storage condition
// that is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// errors.Is unwraps *fs.PathError and friends
	if errors.Is(err, syscall.EINTR) || // Interrupted system call
		errors.Is(err, syscall.EAGAIN) || // Resource temporarily unavailable
		errors.Is(err, syscall.EBUSY) { // Device or resource busy
		return true
	}

	return false
}
