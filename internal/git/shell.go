package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/rancher/pages-deploy-action/internal/redact"
)

// ErrRemoteBranchMissing indicates the remote-tracking ref requested for checkout
// does not exist in the clone.
var ErrRemoteBranchMissing = errors.New("git: remote branch not found")

// ShellExecutor shells out to the system git binary.
type ShellExecutor struct {
	// Git is the git binary to execute. Defaults to "git" when empty.
	Git string

	// Log receives one line per executed command, with credentials filtered out.
	Log *slog.Logger

	// Env is appended to the process environment of every git command.
	Env []string
}

// NewShellExecutor returns an Executor backed by system git commands.
func NewShellExecutor(logger *slog.Logger) *ShellExecutor {
	return &ShellExecutor{Log: logger}
}

// Open implements Executor.
func (e *ShellExecutor) Open(dir string) Workspace {
	return e.Repo(dir)
}

// Repo returns a repository handle whose commands all run against dir.
func (e *ShellExecutor) Repo(dir string) *Repo {
	return &Repo{executor: e, dir: dir}
}

// UseSSHKey makes every later git command authenticate over ssh with the
// identity file at path, replacing any GIT_SSH_COMMAND set earlier.
func (e *ShellExecutor) UseSSHKey(path string) {
	env := make([]string, 0, len(e.Env)+1)
	for _, kv := range e.Env {
		if !strings.HasPrefix(kv, "GIT_SSH_COMMAND=") {
			env = append(env, kv)
		}
	}
	e.Env = append(env, "GIT_SSH_COMMAND="+SSHCommand(path))
}

// SSHCommand returns the ssh invocation restricted to the identity file at path.
// The path is quoted because git runs the command through a shell.
func SSHCommand(path string) string {
	return "ssh -i " + shellQuote(path) + " -o IdentitiesOnly=yes"
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (e *ShellExecutor) gitBinary() string {
	if e.Git == "" {
		return "git"
	}
	return e.Git
}

// Repo runs git commands against a single working tree.
type Repo struct {
	executor *ShellExecutor
	dir      string
}

// Dir returns the directory the repository handle is bound to.
func (r *Repo) Dir() string {
	return r.dir
}

func (r *Repo) HasPendingChanges(ctx context.Context) (bool, error) {
	out, err := r.output(ctx, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

func (r *Repo) CloneInto(ctx context.Context, url string) error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("read clone target: %w", err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("clone target %s is not empty", r.dir)
	}

	if err := r.run(ctx, "clone", url, "."); err != nil {
		return fmt.Errorf("git clone: %w", err)
	}
	return nil
}

func (r *Repo) TrackRemoteBranch(ctx context.Context, ref string) error {
	// rev-parse --verify --quiet exits 1 without output when the ref is absent.
	err := r.run(ctx, "rev-parse", "--verify", "--quiet", "refs/remotes/"+ref)
	if err != nil {
		var gitErr *GitError
		if errors.As(err, &gitErr) && gitErr.ExitCode == 1 {
			return fmt.Errorf("%w: %s", ErrRemoteBranchMissing, ref)
		}
		return fmt.Errorf("git rev-parse %s: %w", ref, err)
	}

	if err := r.run(ctx, "checkout", "--track", ref); err != nil {
		if isMissingRemoteBranch(err) {
			return fmt.Errorf("%w: %s", ErrRemoteBranchMissing, ref)
		}
		return fmt.Errorf("git checkout --track %s: %w", ref, err)
	}
	return nil
}

func (r *Repo) CreateOrphanBranch(ctx context.Context, name string) error {
	if err := r.run(ctx, "checkout", "--orphan", name); err != nil {
		return fmt.Errorf("git checkout --orphan %s: %w", name, err)
	}
	if err := r.run(ctx, "rm", "-r", "-f", "-q", "--ignore-unmatch", "."); err != nil {
		return fmt.Errorf("git rm: %w", err)
	}
	if err := r.run(ctx, "clean", "-f", "-d", "-q"); err != nil {
		return fmt.Errorf("git clean: %w", err)
	}
	return nil
}

func (r *Repo) CurrentBranchName(ctx context.Context) (string, error) {
	out, err := r.output(ctx, "symbolic-ref", "--short", "-q", "HEAD")
	if err != nil {
		var gitErr *GitError
		if errors.As(err, &gitErr) && gitErr.ExitCode == 1 {
			// detached HEAD
			return "", nil
		}
		return "", fmt.Errorf("git symbolic-ref: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) CommitAll(ctx context.Context, message, author, date string) error {
	if err := r.run(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("git add: %w", err)
	}

	args := []string{"commit", "-q", "-m", message}
	if author != "" {
		args = append(args, "--author="+author)
	}
	if date != "" {
		args = append(args, "--date="+date)
	}

	if err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	return nil
}

func (r *Repo) IsConfigKeySet(ctx context.Context, key string) (bool, error) {
	value, err := r.ConfigValue(ctx, key)
	if err != nil {
		return false, err
	}
	return value != "", nil
}

// ConfigValue returns the trimmed value of a git config key, or an empty string
// when the key is unset.
func (r *Repo) ConfigValue(ctx context.Context, key string) (string, error) {
	out, err := r.output(ctx, "config", "--get", key)
	if err != nil {
		var gitErr *GitError
		if errors.As(err, &gitErr) && gitErr.ExitCode == 1 {
			return "", nil
		}
		return "", fmt.Errorf("git config --get %s: %w", key, err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) SetLocalIdentity(ctx context.Context, nameAndEmail string) error {
	id := ParseIdentity(nameAndEmail)
	if l := r.executor.Log; l != nil {
		l.Info("setting local git identity", "identity", id.String())
	}

	if id.Name != "" {
		if err := r.run(ctx, "config", "user.name", id.Name); err != nil {
			return fmt.Errorf("git config user.name: %w", err)
		}
	}
	if id.Email != "" {
		if err := r.run(ctx, "config", "user.email", id.Email); err != nil {
			return fmt.Errorf("git config user.email: %w", err)
		}
	}
	return nil
}

func (r *Repo) Push(ctx context.Context, remoteURL, branch string) error {
	if err := r.run(ctx, "push", "-q", remoteURL, fmt.Sprintf("%s:%s", branch, branch)); err != nil {
		return fmt.Errorf("git push %s: %w", branch, err)
	}
	return nil
}

// HeadAuthor returns the author of HEAD as "Name <email>".
func (r *Repo) HeadAuthor(ctx context.Context) (string, error) {
	return r.logFormat(ctx, "%an <%ae>")
}

// HeadDate returns the author date of HEAD in RFC 2822 form.
func (r *Repo) HeadDate(ctx context.Context) (string, error) {
	return r.logFormat(ctx, "%aD")
}

// HeadShortHash returns the abbreviated hash of HEAD.
func (r *Repo) HeadShortHash(ctx context.Context) (string, error) {
	out, err := r.output(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse --short HEAD: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) logFormat(ctx context.Context, format string) (string, error) {
	out, err := r.output(ctx, "log", "-n", "1", "--format="+format)
	if err != nil {
		return "", fmt.Errorf("git log: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) run(ctx context.Context, args ...string) error {
	_, err := r.output(ctx, args...)
	return err
}

func (r *Repo) output(ctx context.Context, args ...string) (string, error) {
	full := args
	if r.dir != "" {
		full = append([]string{"-C", r.dir}, args...)
	}
	return r.executor.runGit(ctx, full...)
}

func (e *ShellExecutor) runGit(ctx context.Context, args ...string) (string, error) {
	if e.Log != nil {
		e.Log.Info("running git command", "command", redact.Args(e.gitBinary(), args...))
	}

	cmd := exec.CommandContext(ctx, e.gitBinary(), args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, e.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		gitErr := &GitError{Args: args, Output: stderr.String() + stdout.String(), ExitCode: -1, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			gitErr.ExitCode = exitErr.ExitCode()
		}
		return "", gitErr
	}

	return stdout.String(), nil
}

// GitError wraps failures when invoking the git binary. Its message is
// filtered so embedded credentials never surface.
type GitError struct {
	Args     []string
	Output   string
	ExitCode int
	Err      error
}

func (e *GitError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return redact.Filter(msg)
}

func (e *GitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func isMissingRemoteBranch(err error) bool {
	var gitErr *GitError
	if !errors.As(err, &gitErr) {
		return false
	}
	out := gitErr.Output
	return strings.Contains(out, "couldn't find remote ref") ||
		strings.Contains(out, "is not a commit") ||
		strings.Contains(out, "invalid reference") ||
		strings.Contains(out, "unknown revision")
}
