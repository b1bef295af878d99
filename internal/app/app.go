package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rancher/pages-deploy-action/internal/config"
	"github.com/rancher/pages-deploy-action/internal/deploy"
	"github.com/rancher/pages-deploy-action/internal/event"
	"github.com/rancher/pages-deploy-action/internal/git"
	gh "github.com/rancher/pages-deploy-action/internal/github"
)

// Runner glues together the deploy workflow and supporting services.
type Runner struct {
	cfg       Config
	log       *slog.Logger
	ghFactory gh.Factory
	gitExec   *git.ShellExecutor
	env       config.Env
	overrides map[string]any
}

// NewRunner constructs a Runner with the supplied configuration.
func NewRunner(cfg Config) (*Runner, error) {
	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &Runner{
		cfg:       cfg,
		log:       logger,
		ghFactory: gh.NewRESTFactory(cfg.GitHubBaseURL, cfg.GitHubUploadURL),
		gitExec:   git.NewShellExecutor(logger),
	}, nil
}

// NewRunnerWithDeps constructs a Runner with injected dependencies for testing.
// env replaces the process environment snapshot when non-nil.
func NewRunnerWithDeps(cfg Config, log *slog.Logger, ghFactory gh.Factory, gitExec *git.ShellExecutor, env config.Env) *Runner {
	return &Runner{cfg: cfg, log: log, ghFactory: ghFactory, gitExec: gitExec, env: env}
}

// SetOverrides records setting values taken from the command line. They take
// precedence over the settings file.
func (r *Runner) SetOverrides(values map[string]any) {
	r.overrides = values
}

// Run executes one deployment using the provided context.
func (r *Runner) Run(ctx context.Context) error {
	if r.log != nil {
		r.log.Info("starting pages deploy run", "dry_run", r.cfg.DryRun, "request_pages_build", r.cfg.RequestPagesBuild)
	}

	sourceDir := r.cfg.SourceDir
	if sourceDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		sourceDir = wd
	}

	env, err := r.environment()
	if err != nil {
		return err
	}

	resolver, err := r.newResolver(sourceDir, env)
	if err != nil {
		return err
	}

	var notifier deploy.Notifier
	if r.cfg.RequestPagesBuild {
		client, err := r.ghFactory.New(ctx, r.cfg.GitHubToken)
		if err != nil {
			return fmt.Errorf("initialize github client: %w", err)
		}
		notifier = gh.NewPagesNotifier(client, env.Lookup(config.EnvRepoSlug...), r.log)
	}

	workflow := deploy.New(deploy.Config{SourceDir: r.cfg.SourceDir, WorkspaceBase: r.cfg.WorkspaceDir}, resolver, r.gitExec, notifier, r.log)

	result, runErr := workflow.Run(ctx)

	if r.log != nil {
		r.log.Info("deploy finished", "outcome", result.Outcome, "branch", result.Context.Branch, "branch_state", result.Context.BranchState.String())
	}

	if err := r.writeStepSummary(result); err != nil && r.log != nil {
		r.log.Warn("failed to write step summary", "error", err)
	}

	if err := r.writeGitHubOutputs(result); err != nil && r.log != nil {
		r.log.Warn("failed to write action outputs", "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("deploy: %w", runErr)
	}
	return nil
}

// environment snapshots the process environment and folds in what the
// GitHub Actions runner only provides indirectly: the pull request number of
// the triggering event and the action's token input.
func (r *Runner) environment() (config.Env, error) {
	env := r.env
	if env == nil {
		env = config.EnvFromOS()
	}

	if env.Lookup(config.EnvPullRequest...) == "" {
		number, err := event.PullRequestNumber(env["GITHUB_EVENT_NAME"], env["GITHUB_EVENT_PATH"])
		if err != nil {
			return nil, fmt.Errorf("parse pull request event: %w", err)
		}
		if number > 0 {
			if r.log != nil {
				r.log.Debug("running for pull request", "number", number)
			}
			env = env.With(config.EnvPullRequest[0], strconv.Itoa(number))
		}
	}

	if r.cfg.GitHubToken != "" && env.Lookup(config.EnvToken...) == "" {
		env = env.With("GITHUB_TOKEN", r.cfg.GitHubToken)
	}

	return env, nil
}

func (r *Runner) newResolver(sourceDir string, env config.Env) (*config.Resolver, error) {
	argv, err := config.ParseCommand(r.cfg.BuildCommand)
	if err != nil {
		return nil, err
	}

	gitExec := r.gitExec
	if gitExec == nil {
		gitExec = git.NewShellExecutor(r.log)
		r.gitExec = gitExec
	}

	resolver, err := config.New(config.Options{
		SourceDir: sourceDir,
		Env:       env,
		OpenRepo:  func(dir string) config.SourceRepo { return gitExec.Repo(dir) },
		Build:     config.CommandBuild(argv, r.log, os.Stdout, os.Stderr),
		Log:       r.log,
	})
	if err != nil {
		return nil, fmt.Errorf("create settings resolver: %w", err)
	}

	values, err := r.loadSettingsFile(sourceDir)
	if err != nil {
		return nil, err
	}
	if err := resolver.AssignAll(values); err != nil {
		return nil, fmt.Errorf("apply settings file: %w", err)
	}

	if err := resolver.AssignAll(r.overrides); err != nil {
		return nil, fmt.Errorf("apply command-line settings: %w", err)
	}

	if r.cfg.DryRun {
		resolver.SkipDeploy.Set(true)
	}

	return resolver, nil
}

func (r *Runner) loadSettingsFile(sourceDir string) (map[string]any, error) {
	path := r.cfg.SettingsFile
	explicit := path != ""
	if !explicit {
		path = filepath.Join(sourceDir, config.DefaultFile)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(sourceDir, path)
	}

	if explicit {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("settings file %s does not exist", path)
		}
	}

	values, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if values != nil && r.log != nil {
		r.log.Debug("loaded settings file", "path", path, "settings", len(values))
	}
	return values, nil
}
