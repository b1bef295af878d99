// Package config resolves the deploy settings: explicit values, lazily computed
// defaults evaluated against the source repository, and static defaults.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rancher/pages-deploy-action/internal/branchname"
)

// Canonical setting names.
const (
	NameAuthor            = "author"
	NameAuthorDate        = "author_date"
	NameCommitMessage     = "commit_message"
	NameCommitter         = "committer"
	NameOverrideCommitter = "override_committer"
	NameDeployBranch      = "deploy_branch"
	NameBuildScript       = "build_script"
	NameRemoteURL         = "remote_url"
	NameSkipDeploy        = "skip_deploy"
	NameSSHKeyFile        = "ssh_key_file"
)

const (
	DefaultCommitter  = "Pages Deploy <pages-deploy@localhost>"
	DefaultSSHKeyFile = ".deploy_key"

	// RootBranch serves <user>.github.io repositories, PagesBranch every other one.
	RootBranch  = "master"
	PagesBranch = "gh-pages"
)

// aliases maps legacy names onto canonical ones.
var aliases = map[string]string{
	"skip_commit":  NameSkipDeploy,
	"jekyll_build": NameBuildScript,
	"branch":       NameDeployBranch,
	"message":      NameCommitMessage,
}

// BuildFunc renders the site into dest.
type BuildFunc func(ctx context.Context, dest string) error

// SourceRepo is the read-only view of the source repository the computed
// defaults need.
type SourceRepo interface {
	ConfigValue(ctx context.Context, key string) (string, error)
	HeadAuthor(ctx context.Context) (string, error)
	HeadDate(ctx context.Context) (string, error)
	HeadShortHash(ctx context.Context) (string, error)
	CurrentBranchName(ctx context.Context) (string, error)
}

// Options configures a Resolver.
type Options struct {
	// SourceDir is the source working directory. Defaults to the process
	// working directory.
	SourceDir string

	// Env is the environment snapshot. Defaults to EnvFromOS().
	Env Env

	// OpenRepo returns the source repository rooted at dir.
	OpenRepo func(dir string) SourceRepo

	// Build is the default build_script.
	Build BuildFunc

	// Log is handed to build functions created from command lines.
	Log *slog.Logger
}

// Resolver holds every deploy setting.
type Resolver struct {
	Author            Setting[string]
	AuthorDate        Setting[string]
	CommitMessage     Setting[string]
	Committer         Setting[string]
	OverrideCommitter Setting[bool]
	DeployBranch      Setting[string]
	BuildScript       Setting[BuildFunc]
	RemoteURL         Setting[string]
	SkipDeploy        Setting[bool]
	SSHKeyFile        Setting[string]

	scope    *scope
	env      Env
	openRepo func(dir string) SourceRepo
	log      *slog.Logger
}

// New builds a Resolver with the built-in defaults.
func New(opts Options) (*Resolver, error) {
	if opts.OpenRepo == nil {
		return nil, fmt.Errorf("source repository opener is required")
	}

	dir := opts.SourceDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}

	env := opts.Env
	if env == nil {
		env = EnvFromOS()
	}

	r := &Resolver{scope: &scope{dir: dir}, env: env, openRepo: opts.OpenRepo, log: opts.Log}

	r.Author = newSetting[string](r.scope, NameAuthor, "", r.headAuthor)
	r.AuthorDate = newSetting[string](r.scope, NameAuthorDate, "", r.headDate)
	r.CommitMessage = newSetting[string](r.scope, NameCommitMessage, "", r.commitMessage)
	r.Committer = newSetting[string](r.scope, NameCommitter, DefaultCommitter, nil)
	r.OverrideCommitter = newSetting[bool](r.scope, NameOverrideCommitter, false, nil)
	r.DeployBranch = newSetting[string](r.scope, NameDeployBranch, "", r.deployBranch)
	r.BuildScript = newSetting[BuildFunc](r.scope, NameBuildScript, opts.Build, nil)
	r.RemoteURL = newSetting[string](r.scope, NameRemoteURL, "", r.remoteURL)
	r.SkipDeploy = newSetting[bool](r.scope, NameSkipDeploy, false, r.skipDeploy)
	r.SSHKeyFile = newSetting[string](r.scope, NameSSHKeyFile, DefaultSSHKeyFile, nil)

	return r, nil
}

// SourceDir returns the directory computed settings are evaluated in.
func (r *Resolver) SourceDir() string {
	return r.scope.dir
}

// SetSourceDir moves the evaluation context, e.g. when a run starts in a
// different directory than the one the resolver was built in.
func (r *Resolver) SetSourceDir(dir string) {
	r.scope.dir = dir
}

// Env returns the environment snapshot.
func (r *Resolver) Env() Env {
	return r.env
}

// Canonical resolves an alias to its canonical setting name.
func Canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

// Lookup resolves a setting by name (or alias).
func (r *Resolver) Lookup(ctx context.Context, name string) (any, error) {
	switch Canonical(name) {
	case NameAuthor:
		return r.Author.Get(ctx)
	case NameAuthorDate:
		return r.AuthorDate.Get(ctx)
	case NameCommitMessage:
		return r.CommitMessage.Get(ctx)
	case NameCommitter:
		return r.Committer.Get(ctx)
	case NameOverrideCommitter:
		return r.OverrideCommitter.Get(ctx)
	case NameDeployBranch:
		return r.DeployBranch.Get(ctx)
	case NameBuildScript:
		return r.BuildScript.Get(ctx)
	case NameRemoteURL:
		return r.RemoteURL.Get(ctx)
	case NameSkipDeploy:
		return r.SkipDeploy.Get(ctx)
	case NameSSHKeyFile:
		return r.SSHKeyFile.Get(ctx)
	default:
		return nil, fmt.Errorf("unknown setting %q", name)
	}
}

// Assign sets a setting by name (or alias) from loosely typed input such as a
// settings file or command-line flag. Providers are accepted and evaluated on
// every read; build_script also accepts a command line.
func (r *Resolver) Assign(name string, value any) error {
	switch Canonical(name) {
	case NameAuthor:
		return assignString(&r.Author, value)
	case NameAuthorDate:
		return assignString(&r.AuthorDate, value)
	case NameCommitMessage:
		return assignString(&r.CommitMessage, value)
	case NameCommitter:
		return assignString(&r.Committer, value)
	case NameDeployBranch:
		return assignString(&r.DeployBranch, value)
	case NameRemoteURL:
		return assignString(&r.RemoteURL, value)
	case NameSSHKeyFile:
		return assignString(&r.SSHKeyFile, value)
	case NameOverrideCommitter:
		return assignBool(&r.OverrideCommitter, value)
	case NameSkipDeploy:
		return assignBool(&r.SkipDeploy, value)
	case NameBuildScript:
		return r.assignBuild(value)
	default:
		return fmt.Errorf("unknown setting %q", name)
	}
}

// AssignAll applies every entry of values, e.g. a decoded settings file.
func (r *Resolver) AssignAll(values map[string]any) error {
	for name, value := range values {
		if err := r.Assign(name, value); err != nil {
			return err
		}
	}
	return nil
}

func assignString(s *Setting[string], value any) error {
	switch v := value.(type) {
	case string:
		s.Set(v)
	case Provider[string]:
		s.SetFunc(v)
	case func(context.Context, string) (string, error):
		s.SetFunc(v)
	default:
		return fmt.Errorf("setting %s: expected a string, got %T", s.Name(), value)
	}
	return nil
}

func assignBool(s *Setting[bool], value any) error {
	switch v := value.(type) {
	case bool:
		s.Set(v)
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("setting %s: %w", s.Name(), err)
		}
		s.Set(parsed)
	case Provider[bool]:
		s.SetFunc(v)
	case func(context.Context, string) (bool, error):
		s.SetFunc(v)
	default:
		return fmt.Errorf("setting %s: expected a boolean, got %T", s.Name(), value)
	}
	return nil
}

func (r *Resolver) assignBuild(value any) error {
	switch v := value.(type) {
	case BuildFunc:
		r.BuildScript.Set(v)
	case func(context.Context, string) error:
		r.BuildScript.Set(v)
	case string:
		argv, err := ParseCommand(v)
		if err != nil {
			return fmt.Errorf("setting %s: %w", NameBuildScript, err)
		}
		r.BuildScript.Set(CommandBuild(argv, r.log, nil, nil))
	default:
		return fmt.Errorf("setting %s: expected a build function or command, got %T", NameBuildScript, value)
	}
	return nil
}

func (r *Resolver) repo(dir string) SourceRepo {
	return r.openRepo(dir)
}

func (r *Resolver) headAuthor(ctx context.Context, dir string) (string, error) {
	return r.repo(dir).HeadAuthor(ctx)
}

func (r *Resolver) headDate(ctx context.Context, dir string) (string, error) {
	return r.repo(dir).HeadDate(ctx)
}

func (r *Resolver) commitMessage(ctx context.Context, dir string) (string, error) {
	hash, err := r.repo(dir).HeadShortHash(ctx)
	if err != nil {
		return "", err
	}
	return "Built from " + hash, nil
}

func (r *Resolver) deployBranch(ctx context.Context, _ string) (string, error) {
	slug := r.env.Lookup(EnvRepoSlug...)
	user, _, _ := strings.Cut(slug, "/")
	if user == "" {
		return PagesBranch, nil
	}

	remote, err := r.RemoteURL.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", NameRemoteURL, err)
	}

	if IsPersonalSite(remote, user) {
		return RootBranch, nil
	}
	return PagesBranch, nil
}

func (r *Resolver) remoteURL(ctx context.Context, dir string) (string, error) {
	origin, err := r.repo(dir).ConfigValue(ctx, "remote.origin.url")
	if err != nil {
		return "", err
	}
	if origin == "" {
		return "", fmt.Errorf("remote.origin.url is not configured in %s", dir)
	}

	keyFile, err := r.SSHKeyFile.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", NameSSHKeyFile, err)
	}

	if isReadable(dir, keyFile) {
		return SSHRemote(origin), nil
	}
	if token := r.env.Lookup(EnvToken...); token != "" {
		return TokenRemote(origin, token), nil
	}
	return origin, nil
}

func (r *Resolver) skipDeploy(ctx context.Context, dir string) (bool, error) {
	if pr, err := strconv.Atoi(r.env.Lookup(EnvPullRequest...)); err == nil && pr > 0 {
		return true, nil
	}

	if isTruthy(r.env.Lookup(EnvSkipDeploy...)) {
		return true, nil
	}

	source := r.env.Lookup(EnvSourceBranch...)
	if source == "" {
		return false, nil
	}

	current := r.env.Lookup(EnvCurrentBranch...)
	if current == "" {
		branch, err := r.repo(dir).CurrentBranchName(ctx)
		if err != nil {
			return false, err
		}
		current = branch
	}

	return !branchname.Same(source, current), nil
}

// SSHKeyPath returns the absolute path of the deploy key when ssh_key_file
// names a readable file, and an empty string otherwise.
func (r *Resolver) SSHKeyPath(ctx context.Context) (string, error) {
	keyFile, err := r.SSHKeyFile.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", NameSSHKeyFile, err)
	}

	dir := r.scope.dir
	if !isReadable(dir, keyFile) {
		return "", nil
	}
	if !filepath.IsAbs(keyFile) {
		keyFile = filepath.Join(dir, keyFile)
	}
	return filepath.Abs(keyFile)
}

// isReadable reports whether path (relative to dir) is a regular file that can
// be opened for reading.
func isReadable(dir, path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	return err == nil && info.Mode().IsRegular()
}
