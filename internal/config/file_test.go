package config_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rancher/pages-deploy-action/internal/config"
)

var _ = Describe("LoadFile", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("ignores a missing file", func() {
		values, err := config.LoadFile(filepath.Join(dir, config.DefaultFile))
		Expect(err).NotTo(HaveOccurred())
		Expect(values).To(BeEmpty())
	})

	It("decodes settings by name", func() {
		path := filepath.Join(dir, config.DefaultFile)
		Expect(os.WriteFile(path, []byte(`
branch = "pages"
override_committer = true
build_script = "hugo --minify"
`), 0o600)).To(Succeed())

		values, err := config.LoadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(values).To(HaveKeyWithValue("branch", "pages"))
		Expect(values).To(HaveKeyWithValue("override_committer", true))

		r, err := config.New(config.Options{
			SourceDir: dir,
			Env:       config.Env{},
			OpenRepo:  func(string) config.SourceRepo { return &fakeSourceRepo{} },
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(r.AssignAll(values)).To(Succeed())

		branch, err := r.DeployBranch.Get(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(branch).To(Equal("pages"))

		override, err := r.OverrideCommitter.Get(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(override).To(BeTrue())
	})

	It("reports malformed files", func() {
		path := filepath.Join(dir, config.DefaultFile)
		Expect(os.WriteFile(path, []byte("branch = \n"), 0o600)).To(Succeed())

		_, err := config.LoadFile(path)
		Expect(err).To(MatchError(ContainSubstring("parse settings file")))
	})
})

var _ = Describe("Build commands", func() {
	It("splits command lines like a shell", func() {
		argv, err := config.ParseCommand(`bundle exec "jekyll build" --trace`)
		Expect(err).NotTo(HaveOccurred())
		Expect(argv).To(Equal([]string{"bundle", "exec", "jekyll build", "--trace"}))
	})

	It("rejects an empty command", func() {
		_, err := config.ParseCommand("   ")
		Expect(err).To(HaveOccurred())
	})

	It("appends the destination to the command", func() {
		if runtime.GOOS == "windows" {
			Skip("requires a POSIX shell")
		}
		var stdout bytes.Buffer
		build := config.CommandBuild([]string{"sh", "-c", `echo "$1 $2"`, "sh"}, nil, &stdout, nil)

		Expect(build(context.Background(), "/tmp/site")).To(Succeed())
		Expect(stdout.String()).To(Equal("--destination /tmp/site\n"))
	})

	It("reports a failing build", func() {
		build := config.CommandBuild([]string{"sh", "-c", "exit 3"}, nil, nil, nil)
		Expect(build(context.Background(), GinkgoT().TempDir())).To(MatchError(ContainSubstring("run sh")))
	})
})
