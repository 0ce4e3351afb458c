//go:build !linux && !darwin && !windows

package platform

import "errors"

// Notify reports errors.ErrUnsupported; callers treat that as silence.
func Notify(string, string, Options) error {
	return errors.ErrUnsupported
}
