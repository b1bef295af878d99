package branchname_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rancher/pages-deploy-action/internal/branchname"
)

var _ = Describe("Branch names", func() {
	Describe("Normalize", func() {
		It("strips refs/heads and surrounding slashes", func() {
			Expect(branchname.Normalize(" /refs/heads/gh-pages/ ")).To(Equal("gh-pages"))
			Expect(branchname.Normalize("REFS/HEADS/docs/site")).To(Equal("docs/site"))
		})

		It("returns empty for blank input", func() {
			Expect(branchname.Normalize(" // ")).To(BeEmpty())
		})

		It("compares normalized names", func() {
			Expect(branchname.Same("refs/heads/main", "main")).To(BeTrue())
			Expect(branchname.Same("main", "release")).To(BeFalse())
		})
	})

	Describe("Validate", func() {
		It("accepts ordinary branch names", func() {
			Expect(branchname.Validate("gh-pages")).To(Succeed())
			Expect(branchname.Validate("master")).To(Succeed())
			Expect(branchname.Validate("docs/v1.2")).To(Succeed())
			Expect(branchname.Validate("site@2024")).To(Succeed())
			Expect(branchname.Validate("release]")).To(Succeed())
		})

		DescribeTable("rejects unsafe names",
			func(branch string) {
				Expect(branchname.Validate(branch)).NotTo(Succeed())
			},
			Entry("empty", ""),
			Entry("whitespace", "gh pages"),
			Entry("double dot", "a..b"),
			Entry("refspec colon", "main:gh-pages"),
			Entry("revision syntax", "main@{1}"),
			Entry("bare at sign", "@"),
			Entry("glob bracket", "pages[1"),
			Entry("option-like", "--force"),
			Entry("lock suffix", "pages.lock"),
			Entry("trailing dot", "pages."),
		)
	})
})
