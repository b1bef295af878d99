// Package branchname normalizes and checks branch names taken from settings
// and CI variables before they reach git.
package branchname

import (
	"errors"
	"fmt"
	"strings"
)

const headsPrefix = "refs/heads/"

// Normalize trims whitespace, removes leading/trailing slashes, and strips a
// refs/heads prefix. It returns an empty string when nothing is left.
func Normalize(branch string) string {
	branch = strings.Trim(strings.TrimSpace(branch), "/")

	if len(branch) >= len(headsPrefix) && strings.EqualFold(branch[:len(headsPrefix)], headsPrefix) {
		branch = branch[len(headsPrefix):]
	}

	return strings.TrimSpace(strings.Trim(branch, "/"))
}

// Validate rejects names git would refuse or misread as a refspec or revision.
func Validate(branch string) error {
	switch {
	case branch == "":
		return errors.New("branch cannot be empty")
	case strings.ContainsAny(branch, " \t\n\r"):
		return errors.New("branch cannot contain whitespace")
	case strings.Contains(branch, ".."):
		return errors.New("branch cannot contain '..'")
	case strings.ContainsAny(branch, "~^:?*[\\"):
		return errors.New("branch contains forbidden git characters")
	case branch == "@" || strings.Contains(branch, "@{"):
		return errors.New("branch cannot be '@' or contain '@{'")
	case strings.HasPrefix(branch, "-"):
		return errors.New("branch cannot start with '-'")
	case strings.HasSuffix(branch, ".lock") || strings.HasSuffix(branch, "."):
		return fmt.Errorf("branch cannot end with %q", branch[strings.LastIndex(branch, "."):])
	}
	return nil
}

// Same reports whether two branch names refer to the same branch once
// normalized.
func Same(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
