package gh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rancher/pages-deploy-action/internal/deploy"
	"github.com/rancher/pages-deploy-action/internal/redact"
)

// PagesNotifier asks GitHub to rebuild the Pages site after a push.
type PagesNotifier struct {
	client Client
	slug   string
	log    *slog.Logger
}

// NewPagesNotifier returns a notifier for the repository named by slug. An
// empty slug makes the notifier derive the repository from the pushed remote.
func NewPagesNotifier(client Client, slug string, logger *slog.Logger) *PagesNotifier {
	return &PagesNotifier{client: client, slug: slug, log: logger}
}

// NotifyDeployed implements deploy.Notifier.
func (n *PagesNotifier) NotifyDeployed(ctx context.Context, dctx deploy.DeployContext) error {
	if n.client == nil {
		return fmt.Errorf("github client is required")
	}

	owner, repo, err := n.repository(dctx.RemoteURL)
	if err != nil {
		return err
	}

	previous, err := n.client.LatestPagesBuild(ctx, owner, repo)
	switch {
	case errors.Is(err, ErrPagesNotEnabled):
		if n.log != nil {
			n.log.Info("pages not enabled, build not requested", "owner", owner, "repo", repo)
		}
		return nil
	case err != nil:
		if n.log != nil {
			n.log.Debug("previous pages build unavailable", "owner", owner, "repo", repo, "error", err)
		}
	case n.log != nil:
		n.log.Info("previous pages build", "owner", owner, "repo", repo, "status", previous.Status, "commit", previous.Commit)
	}

	build, err := n.client.RequestPagesBuild(ctx, owner, repo)
	if err != nil {
		if errors.Is(err, ErrPagesNotEnabled) {
			if n.log != nil {
				n.log.Info("pages not enabled, build not requested", "owner", owner, "repo", repo)
			}
			return nil
		}
		if n.log != nil {
			n.log.Warn("pages build request failed", "owner", owner, "repo", repo, "retryable", IsRetryable(err), "error", err)
		}
		return err
	}

	if n.log != nil {
		n.log.Info("requested pages build", "owner", owner, "repo", repo, "branch", dctx.Branch, "status", build.Status, "url", build.URL)
	}
	return nil
}

func (n *PagesNotifier) repository(remote string) (string, string, error) {
	if n.slug != "" {
		return ParseSlug(n.slug)
	}
	owner, repo, err := RepositoryFromRemote(remote)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", err, redact.Filter(remote))
	}
	return owner, repo, nil
}
