package utils

import "errors"

// RunAndWrapOnError runs the given function and joins its error, if any, with existingErr.
func RunAndWrapOnError(runnable func() error, existingErr error) error {
	if runnable == nil {
		return existingErr
	}

	if err := runnable(); err != nil {
		if existingErr == nil {
			return err
		}
		return errors.Join(existingErr, err)
	}

	return existingErr
}
