package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rancher/pages-deploy-action/internal/deploy"
	"github.com/rancher/pages-deploy-action/internal/redact"
)

func (r *Runner) writeStepSummary(result deploy.Result) error {
	path := strings.TrimSpace(r.lookupEnv("GITHUB_STEP_SUMMARY"))
	if path == "" {
		return nil
	}

	var builder strings.Builder
	builder.WriteString("## Pages deploy summary\n\n")
	builder.WriteString(renderResultDetails(result))

	return appendFile(path, builder.String(), "step summary")
}

func (r *Runner) writeGitHubOutputs(result deploy.Result) error {
	path := strings.TrimSpace(r.lookupEnv("GITHUB_OUTPUT"))
	if path == "" {
		return nil
	}

	summary := outputRunSummary{
		Outcome:     string(result.Outcome),
		Reason:      redact.Filter(result.Reason),
		Branch:      result.Context.Branch,
		BranchState: result.Context.BranchState.String(),
		Pushed:      result.Pushed(),
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal run_summary: %w", err)
	}

	var builder strings.Builder
	writeOutput(&builder, "outcome", summary.Outcome)
	writeOutput(&builder, "branch", summary.Branch)
	writeOutput(&builder, "pushed", fmt.Sprintf("%t", summary.Pushed))
	writeMultilineOutput(&builder, "run_summary", string(summaryJSON))

	return appendFile(path, builder.String(), "github output")
}

func (r *Runner) lookupEnv(key string) string {
	if r.env != nil {
		return r.env[key]
	}
	return os.Getenv(key)
}

func renderResultDetails(result deploy.Result) string {
	var builder strings.Builder

	branch := result.Context.Branch
	if branch == "" {
		branch = "-"
	}

	builder.WriteString("| Branch | Branch state | Outcome | Details |\n")
	builder.WriteString("| --- | --- | --- | --- |\n")
	builder.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
		sanitizeMarkdownCell(branch),
		sanitizeMarkdownCell(result.Context.BranchState.String()),
		sanitizeMarkdownCell(string(result.Outcome)),
		sanitizeMarkdownCell(redact.Filter(result.Reason)),
	))

	return builder.String()
}

type outputRunSummary struct {
	Outcome     string `json:"outcome"`
	Reason      string `json:"reason"`
	Branch      string `json:"branch"`
	BranchState string `json:"branch_state"`
	Pushed      bool   `json:"pushed"`
}

func appendFile(path, content, what string) error {
	// GitHub Actions creates these files; only the directory may be missing locally.
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s directory: %w", what, err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", what, err)
	}
	defer file.Close()

	if _, err := file.WriteString(content); err != nil {
		return fmt.Errorf("write %s: %w", what, err)
	}
	return nil
}

func writeOutput(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "%s=%s\n", key, value)
}

func writeMultilineOutput(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "%s<<EOF\n%s\nEOF\n", key, value)
}

func sanitizeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "|", "\\|")
	value = strings.ReplaceAll(value, "\n", "<br>")
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}
