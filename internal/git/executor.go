package git

import "context"

// Executor opens git workspaces rooted at a directory.
type Executor interface {
	Open(dir string) Workspace
}

// Workspace exposes the git primitives the deploy workflow drives inside its
// temporary clone. Implementations may shell out to git or fake it in tests.
type Workspace interface {
	HasPendingChanges(ctx context.Context) (bool, error)
	CloneInto(ctx context.Context, url string) error
	TrackRemoteBranch(ctx context.Context, ref string) error
	CreateOrphanBranch(ctx context.Context, name string) error
	CurrentBranchName(ctx context.Context) (string, error)
	CommitAll(ctx context.Context, message, author, date string) error
	IsConfigKeySet(ctx context.Context, key string) (bool, error)
	SetLocalIdentity(ctx context.Context, nameAndEmail string) error
	Push(ctx context.Context, remoteURL, branch string) error
}
