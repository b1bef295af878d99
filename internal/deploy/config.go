package deploy

// Config captures the runtime controls the workflow needs.
type Config struct {
	// SourceDir pins the source working directory. When empty the process
	// working directory is captured at construction and again when Run starts.
	SourceDir string

	// WorkspaceBase is the parent of the temporary deploy workspace. Empty
	// selects the system temp directory.
	WorkspaceBase string
}
