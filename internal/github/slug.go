package gh

import (
	"fmt"
	"regexp"
	"strings"
)

var remoteRepoPath = regexp.MustCompile(`[:/]([^/:]+)/([^/]+?)(?:\.git)?/?$`)

// ParseSlug splits an "owner/name" repository slug.
func ParseSlug(slug string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(slug), "/")
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("repository slug %q must be of the form owner/name", slug)
	}
	return owner, repo, nil
}

// RepositoryFromRemote derives owner and name from the last two path segments
// of a git remote, either URL or scp-like.
func RepositoryFromRemote(remote string) (owner, repo string, err error) {
	m := remoteRepoPath.FindStringSubmatch(strings.TrimSpace(remote))
	if m == nil {
		return "", "", fmt.Errorf("cannot derive repository from remote")
	}
	return m[1], m[2], nil
}
