// Package workdir runs units of work with the process working directory
// temporarily switched to another directory.
package workdir

import (
	"fmt"
	"os"
)

// Run changes the process working directory to dir, invokes fn, and restores the
// previous directory before returning, also when fn fails or panics. An empty dir
// runs fn in place.
func Run(dir string, fn func() error) (err error) {
	if dir == "" {
		return fn()
	}

	prev, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("change directory to %s: %w", dir, err)
	}

	defer func() {
		if restoreErr := os.Chdir(prev); restoreErr != nil && err == nil {
			err = fmt.Errorf("restore working directory %s: %w", prev, restoreErr)
		}
	}()

	return fn()
}

// Value is Run for work that produces a result.
func Value[T any](dir string, fn func() (T, error)) (T, error) {
	var out T
	err := Run(dir, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
