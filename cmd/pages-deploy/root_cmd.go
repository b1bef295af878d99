package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rancher/pages-deploy-action/internal/app"
	"github.com/rancher/pages-deploy-action/internal/config"
)

// settingFlags maps command-line flags onto resolver settings.
var settingFlags = map[string]string{
	"branch":             config.NameDeployBranch,
	"message":            config.NameCommitMessage,
	"remote-url":         config.NameRemoteURL,
	"committer":          config.NameCommitter,
	"override-committer": config.NameOverrideCommitter,
	"author":             config.NameAuthor,
	"author-date":        config.NameAuthorDate,
	"ssh-key-file":       config.NameSSHKeyFile,
	"skip-deploy":        config.NameSkipDeploy,
}

type processFlags struct {
	logLevel          string
	logFormat         string
	verbose           bool
	dryRun            bool
	buildCommand      string
	configFile        string
	sourceDir         string
	workspaceDir      string
	requestPagesBuild bool
}

// rootOptions holds the values the root command's flags are bound to.
type rootOptions struct {
	proc     processFlags
	settings map[string]*string
	toggles  map[string]*bool
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&rootOptions{})
}

func newRootCmdWith(opts *rootOptions) *cobra.Command {
	opts.settings = map[string]*string{}
	opts.toggles = map[string]*bool{}

	cmd := &cobra.Command{
		Use:   "pages-deploy",
		Short: "Build a static site and publish it to a git branch",
		Long: `Build a static site and publish it to a dedicated branch of the origin repository.

The destination repository is cloned into a temporary workspace, the deploy
branch is checked out (or created without history), the build writes into the
workspace and any change is committed and pushed. Settings come from built-in
defaults, the settings file and these flags, in increasing priority.`,
		Example: `  pages-deploy                                  # Build with jekyll, push to gh-pages
  pages-deploy --build-command "hugo --minify"  # Use another generator
  pages-deploy --branch site --dry-run          # Build only, never push`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if err := applyProcessFlags(cmd.Flags(), opts.proc, &cfg); err != nil {
				return err
			}

			runner, err := app.NewRunner(cfg)
			if err != nil {
				return err
			}
			runner.SetOverrides(opts.changedSettings(cmd.Flags()))

			return runner.Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	proc := &opts.proc
	f.StringVar(&proc.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&proc.logFormat, "log-format", "", "Log format: text or json")
	f.BoolVarP(&proc.verbose, "verbose", "v", false, "Shorthand for --log-level debug")
	f.BoolVar(&proc.dryRun, "dry-run", false, "Run the build but never commit or push")
	f.StringVar(&proc.buildCommand, "build-command", "", "Build command; --destination <dir> is appended (default \""+config.DefaultBuildCommand+"\")")
	f.StringVarP(&proc.configFile, "config", "c", "", "Settings file (default "+config.DefaultFile+" in the source directory)")
	f.StringVar(&proc.sourceDir, "source-dir", "", "Source repository directory (default: current directory)")
	f.StringVar(&proc.workspaceDir, "workspace-dir", "", "Parent directory of the temporary deploy workspace")
	f.BoolVar(&proc.requestPagesBuild, "request-pages-build", false, "Ask GitHub to rebuild the Pages site after a push")

	for name, setting := range settingFlags {
		switch setting {
		case config.NameOverrideCommitter, config.NameSkipDeploy:
			opts.toggles[name] = f.Bool(name, false, "Set the "+setting+" setting")
		default:
			opts.settings[name] = f.String(name, "", "Set the "+setting+" setting")
		}
	}

	return cmd
}

// applyProcessFlags copies explicitly given process flags over cfg.
func applyProcessFlags(flags *pflag.FlagSet, proc processFlags, cfg *app.Config) error {
	if flags.Changed("log-level") {
		cfg.LogLevel = proc.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = proc.logFormat
	}
	if flags.Changed("verbose") {
		cfg.Verbose = proc.verbose
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = proc.dryRun
	}
	if flags.Changed("build-command") {
		cfg.BuildCommand = proc.buildCommand
	}
	if flags.Changed("config") {
		cfg.SettingsFile = proc.configFile
	}
	if flags.Changed("source-dir") {
		cfg.SourceDir = proc.sourceDir
	}
	if flags.Changed("workspace-dir") {
		cfg.WorkspaceDir = proc.workspaceDir
	}
	if flags.Changed("request-pages-build") {
		cfg.RequestPagesBuild = proc.requestPagesBuild
	}
	return cfg.Validate()
}

// changedSettings returns the setting flags given on the command line, keyed
// by setting name.
func (o *rootOptions) changedSettings(flags *pflag.FlagSet) map[string]any {
	values := make(map[string]any)
	for name, v := range o.settings {
		if flags.Changed(name) {
			values[settingFlags[name]] = *v
		}
	}
	for name, v := range o.toggles {
		if flags.Changed(name) {
			values[settingFlags[name]] = *v
		}
	}
	return values
}
