package event

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/go-github/v55/github"
)

// Event names that run a workflow in the context of a pull request.
const (
	NamePullRequest       = "pull_request"
	NamePullRequestTarget = "pull_request_target"
)

// PullRequestPayload captures the subset of a pull_request event used to decide
// whether a build may be deployed.
type PullRequestPayload struct {
	Action      string
	Repository  Repository
	PullRequest PullRequest
}

// Repository identifies the owner/name of the repository where the event originated.
type Repository struct {
	Owner string
	Name  string
}

// Slug returns "owner/name", or an empty string when either part is missing.
func (r Repository) Slug() string {
	if r.Owner == "" || r.Name == "" {
		return ""
	}
	return r.Owner + "/" + r.Name
}

// PullRequest is the pull request a build runs for.
type PullRequest struct {
	Number  int
	HeadRef string
	BaseRef string
	Draft   bool
}

// IsPullRequestEvent reports whether name is an event raised for a pull request.
func IsPullRequestEvent(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NamePullRequest, NamePullRequestTarget:
		return true
	default:
		return false
	}
}

// ParsePullRequestEvent decodes a GitHub pull_request event payload from the provided reader.
func ParsePullRequestEvent(r io.Reader) (PullRequestPayload, error) {
	var raw github.PullRequestEvent

	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return PullRequestPayload{}, fmt.Errorf("decode pull_request event: %w", err)
	}

	pr := raw.GetPullRequest()
	number := raw.GetNumber()
	if number == 0 {
		number = pr.GetNumber()
	}

	return PullRequestPayload{
		Action: strings.ToLower(strings.TrimSpace(raw.GetAction())),
		Repository: Repository{
			Owner: strings.TrimSpace(raw.GetRepo().GetOwner().GetLogin()),
			Name:  strings.TrimSpace(raw.GetRepo().GetName()),
		},
		PullRequest: PullRequest{
			Number:  number,
			HeadRef: strings.TrimSpace(pr.GetHead().GetRef()),
			BaseRef: strings.TrimSpace(pr.GetBase().GetRef()),
			Draft:   pr.GetDraft(),
		},
	}, nil
}

// ParsePullRequestEventFile reads the event JSON from disk.
func ParsePullRequestEventFile(path string) (PullRequestPayload, error) {
	f, err := os.Open(path)
	if err != nil {
		return PullRequestPayload{}, fmt.Errorf("open event file: %w", err)
	}
	defer f.Close()

	return ParsePullRequestEvent(f)
}

// PullRequestNumber returns the pull request number of the workflow run
// described by eventName and the event file at path. Events that are not
// raised for a pull request, or a missing path, yield 0.
func PullRequestNumber(eventName, path string) (int, error) {
	if !IsPullRequestEvent(eventName) || strings.TrimSpace(path) == "" {
		return 0, nil
	}

	payload, err := ParsePullRequestEventFile(path)
	if err != nil {
		return 0, err
	}
	return payload.PullRequest.Number, nil
}
