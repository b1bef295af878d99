package config

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	httpRemote   = regexp.MustCompile(`^https?://(?:[^@/]+@)?([^/]+)/(.+)$`)
	gitRemote    = regexp.MustCompile(`^git://([^/]+)/(.+)$`)
	scpRemote    = regexp.MustCompile(`^(?:[^@:/]+@)?([^:/]+):(.+)$`)
	schemeRemote = regexp.MustCompile(`^(?:https?|git|ssh)://(?:[^@/]+@)?(.+)$`)
)

// SSHRemote rewrites an http(s) or git:// remote into the scp-like SSH form
// git@host:path. Other remotes are returned unchanged.
func SSHRemote(remote string) string {
	if m := httpRemote.FindStringSubmatch(remote); m != nil {
		return fmt.Sprintf("git@%s:%s", m[1], m[2])
	}
	if m := gitRemote.FindStringSubmatch(remote); m != nil {
		return fmt.Sprintf("git@%s:%s", m[1], m[2])
	}
	return remote
}

// TokenRemote rewrites a remote into an https URL carrying token as userinfo.
// scp-like SSH remotes are converted first; remotes that are not network
// addresses (local paths) are returned unchanged.
func TokenRemote(remote, token string) string {
	var rest string

	switch {
	case schemeRemote.MatchString(remote):
		rest = schemeRemote.FindStringSubmatch(remote)[1]
	case scpRemote.MatchString(remote) && !strings.HasPrefix(remote, "/") && !strings.HasPrefix(remote, "."):
		m := scpRemote.FindStringSubmatch(remote)
		rest = m[1] + "/" + strings.TrimPrefix(m[2], "/")
	default:
		return remote
	}

	return fmt.Sprintf("https://x-access-token:%s@%s", token, rest)
}

// IsPersonalSite reports whether remote addresses the <user>.github.io
// repository of user.
func IsPersonalSite(remote, user string) bool {
	user = strings.TrimSpace(user)
	if user == "" {
		return false
	}
	pattern := regexp.MustCompile(`(?i)[:/]` + regexp.QuoteMeta(user) + `\.github\.io(?:\.git)?/?$`)
	return pattern.MatchString(strings.TrimSpace(remote))
}
