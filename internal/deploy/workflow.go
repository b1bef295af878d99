package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/rancher/pages-deploy-action/internal/branchname"
	"github.com/rancher/pages-deploy-action/internal/config"
	"github.com/rancher/pages-deploy-action/internal/git"
	"github.com/rancher/pages-deploy-action/internal/redact"
	"github.com/rancher/pages-deploy-action/internal/workdir"
)

// Notifier is told about every successful push.
type Notifier interface {
	NotifyDeployed(ctx context.Context, dctx DeployContext) error
}

// SSHKeyUser is implemented by executors that can authenticate with a deploy
// key. The workflow hands it the key before cloning when one is readable.
type SSHKeyUser interface {
	UseSSHKey(path string)
}

// Workflow clones the destination repository, prepares the deploy branch,
// runs the build into it and commits and pushes whatever changed.
type Workflow struct {
	cfg       Config
	settings  *config.Resolver
	git       git.Executor
	notifier  Notifier
	log       *slog.Logger
	sourceDir string
}

// New returns a configured Workflow. notifier and logger may be nil.
func New(cfg Config, settings *config.Resolver, executor git.Executor, notifier Notifier, logger *slog.Logger) *Workflow {
	w := &Workflow{cfg: cfg, settings: settings, git: executor, notifier: notifier, log: logger}
	w.sourceDir = w.captureSourceDir()
	return w
}

type run struct {
	*Workflow
	dctx  DeployContext
	trail []State
}

func (r *run) enter(s State) {
	r.trail = append(r.trail, s)
	if r.log != nil {
		r.log.Debug("deploy state", "state", s)
	}
}

func (r *run) result(outcome State, reason string) Result {
	return Result{Outcome: outcome, Reason: reason, Context: r.dctx, Trail: append([]State(nil), r.trail...)}
}

func (r *run) fail(err error) (Result, error) {
	r.enter(StateFailed)
	return r.result(StateFailed, err.Error()), err
}

// Run performs one deployment. A best-effort Result is returned alongside any
// error; the temporary workspace is removed on every path.
func (w *Workflow) Run(ctx context.Context) (Result, error) {
	if w.settings == nil {
		return Result{Outcome: StateFailed}, fmt.Errorf("settings resolver is required")
	}
	if w.git == nil {
		return Result{Outcome: StateFailed}, fmt.Errorf("git executor is required")
	}

	r := &run{Workflow: w}
	r.enter(StateStart)

	r.dctx.SourceDir = w.captureSourceDir()
	w.settings.SetSourceDir(r.dctx.SourceDir)

	workspace, err := os.MkdirTemp(w.cfg.WorkspaceBase, "pages-deploy-")
	if err != nil {
		return r.fail(fmt.Errorf("create workspace: %w", err))
	}
	r.dctx.Workspace = workspace

	defer func() {
		if err := os.RemoveAll(workspace); err != nil && w.log != nil {
			w.log.Warn("failed to remove workspace", "workspace", workspace, "error", err)
		}
	}()
	r.enter(StateWorkspaceReady)

	repo := w.git.Open(workspace)

	if err := r.clone(ctx, repo); err != nil {
		return r.fail(err)
	}
	r.enter(StateCloned)

	if err := r.prepareBranch(ctx, repo); err != nil {
		return r.fail(err)
	}
	r.enter(StateBranchReady)

	if err := r.build(ctx); err != nil {
		return r.fail(err)
	}
	r.enter(StateBuilt)

	changes, err := detectChanges(ctx, repo)
	if err != nil {
		return r.fail(err)
	}
	if changes == NoChanges {
		if w.log != nil {
			w.log.Info("nothing to commit", "branch", r.dctx.Branch)
		}
		r.enter(StateNoOpDone)
		r.enter(StateDone)
		return r.result(StateNoOpDone, "nothing to commit"), nil
	}

	skip, err := w.settings.SkipDeploy.Get(ctx)
	if err != nil {
		return r.fail(fmt.Errorf("resolve %s: %w", config.NameSkipDeploy, err))
	}
	if skip {
		if w.log != nil {
			w.log.Info("skipping deploy", "branch", r.dctx.Branch)
		}
		r.enter(StateDeploySkipped)
		r.enter(StateDone)
		return r.result(StateDeploySkipped, "deploy skipped"), nil
	}

	if err := r.commit(ctx, repo); err != nil {
		return r.fail(err)
	}
	r.enter(StateCommitted)

	if err := repo.Push(ctx, r.dctx.RemoteURL, r.dctx.Branch); err != nil {
		return r.fail(fmt.Errorf("push: %w", err))
	}
	r.enter(StatePushed)

	if w.log != nil {
		w.log.Info("deployed site", "branch", r.dctx.Branch, "remote", redact.Filter(r.dctx.RemoteURL))
	}

	if w.notifier != nil {
		if err := w.notifier.NotifyDeployed(ctx, r.dctx); err != nil && w.log != nil {
			w.log.Warn("post-deploy notification failed", "error", err)
		}
	}

	r.enter(StateDone)
	return r.result(StatePushed, "pushed"), nil
}

func (r *run) clone(ctx context.Context, repo git.Workspace) error {
	remote, err := r.settings.RemoteURL.Get(ctx)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", config.NameRemoteURL, err)
	}
	r.dctx.RemoteURL = remote

	if keyed, ok := r.git.(SSHKeyUser); ok {
		key, err := r.settings.SSHKeyPath(ctx)
		if err != nil {
			return err
		}
		if key != "" {
			keyed.UseSSHKey(key)
			if r.log != nil {
				r.log.Info("using deploy key", "ssh_key_file", key)
			}
		}
	}

	if err := repo.CloneInto(ctx, remote); err != nil {
		return fmt.Errorf("clone: %w", err)
	}
	return nil
}

func (r *run) prepareBranch(ctx context.Context, repo git.Workspace) error {
	branch, err := r.settings.DeployBranch.Get(ctx)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", config.NameDeployBranch, err)
	}
	branch = branchname.Normalize(branch)
	if err := branchname.Validate(branch); err != nil {
		return fmt.Errorf("invalid %s: %w", config.NameDeployBranch, err)
	}
	r.dctx.Branch = branch

	current, err := repo.CurrentBranchName(ctx)
	if err != nil {
		return fmt.Errorf("read current branch: %w", err)
	}
	if current == branch {
		r.dctx.BranchState = BranchState{Kind: TrackingRemote, Name: branch}
		return nil
	}

	err = repo.TrackRemoteBranch(ctx, "origin/"+branch)
	switch {
	case err == nil:
		r.dctx.BranchState = BranchState{Kind: TrackingRemote, Name: branch}
		return nil
	case errors.Is(err, git.ErrRemoteBranchMissing):
		if r.log != nil {
			r.log.Info("remote branch missing, creating orphan branch", "branch", branch)
		}
	default:
		return fmt.Errorf("track remote branch %s: %w", branch, err)
	}

	if err := repo.CreateOrphanBranch(ctx, branch); err != nil {
		return fmt.Errorf("create orphan branch %s: %w", branch, err)
	}
	r.dctx.BranchState = BranchState{Kind: Orphan, Name: branch}
	return nil
}

func (r *run) build(ctx context.Context) error {
	fn, err := r.settings.BuildScript.Get(ctx)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", config.NameBuildScript, err)
	}
	if fn == nil {
		return fmt.Errorf("no %s configured", config.NameBuildScript)
	}

	if err := workdir.Run(r.dctx.SourceDir, func() error {
		return fn(ctx, r.dctx.Workspace)
	}); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	return nil
}

func detectChanges(ctx context.Context, repo git.Workspace) (ChangeOutcome, error) {
	pending, err := repo.HasPendingChanges(ctx)
	if err != nil {
		return NoChanges, fmt.Errorf("check pending changes: %w", err)
	}
	if pending {
		return HasChanges, nil
	}
	return NoChanges, nil
}

func (r *run) commit(ctx context.Context, repo git.Workspace) error {
	override, err := r.settings.OverrideCommitter.Get(ctx)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", config.NameOverrideCommitter, err)
	}

	configure := override
	if !configure {
		set, err := repo.IsConfigKeySet(ctx, "user.name")
		if err != nil {
			return fmt.Errorf("read user.name: %w", err)
		}
		configure = !set
	}

	if configure {
		committer, err := r.settings.Committer.Get(ctx)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", config.NameCommitter, err)
		}
		if err := repo.SetLocalIdentity(ctx, committer); err != nil {
			return fmt.Errorf("set committer identity: %w", err)
		}
	}

	message, err := r.settings.CommitMessage.Get(ctx)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", config.NameCommitMessage, err)
	}
	author, err := r.settings.Author.Get(ctx)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", config.NameAuthor, err)
	}
	date, err := r.settings.AuthorDate.Get(ctx)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", config.NameAuthorDate, err)
	}

	if err := repo.CommitAll(ctx, message, author, date); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (w *Workflow) captureSourceDir() string {
	if w.cfg.SourceDir != "" {
		return w.cfg.SourceDir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	if w.sourceDir != "" {
		return w.sourceDir
	}
	if w.settings != nil {
		return w.settings.SourceDir()
	}
	return ""
}
