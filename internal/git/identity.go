package git

import "strings"

// Identity is a git author or committer identity.
type Identity struct {
	Name  string
	Email string
}

// ParseIdentity splits a "Name <email>" string. Everything before an optional
// <...> group is the name; the bracketed part is the email. Both are trimmed and
// left empty when blank.
func ParseIdentity(s string) Identity {
	name := s
	var email string

	if open := strings.Index(s, "<"); open >= 0 {
		name = s[:open]
		rest := s[open+1:]
		if end := strings.Index(rest, ">"); end >= 0 {
			rest = rest[:end]
		}
		email = rest
	}

	return Identity{
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
	}
}

// String renders the identity in "Name <email>" form.
func (i Identity) String() string {
	switch {
	case i.Email == "":
		return i.Name
	case i.Name == "":
		return "<" + i.Email + ">"
	default:
		return i.Name + " <" + i.Email + ">"
	}
}
