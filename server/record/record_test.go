package record_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"molt/server/record"
)

var _ = Describe("Record", func() {

	It("reads and writes the reserved revision attribute", func() {
		target := record.Record{"name": "gregor"}

		_, ok := target.Revision()
		Expect(ok).To(BeFalse())

		target.SetRevision("some-revision")
		revision, ok := target.Revision()
		Expect(ok).To(BeTrue())
		Expect(revision).To(Equal("some-revision"))
		Expect(target).To(HaveKey(record.RevisionAttribute))
	})

	It("tells a missing revision attribute from a malformed one", func() {
		target := record.Record{record.RevisionAttribute: 42}
		_, ok := target.Revision()
		Expect(ok).To(BeFalse())
		Expect(target.HasRevision()).To(BeTrue())

		Expect(record.Record{}.HasRevision()).To(BeFalse())
	})

	It("clones independently of the original", func() {
		target := record.Record{"name": "gregor", "tags": []interface{}{"insect"}}
		clone := target.Clone()

		clone["name"] = "grete"
		Expect(target["name"]).To(Equal("gregor"))

		clone["tags"] = append(clone["tags"].([]interface{}), "vermin")
		Expect(target["tags"]).To(HaveLen(1))
	})

	It("builds a record from a typed struct", func() {
		type Cricket struct {
			Name string `structs:"name"`
			Legs int    `structs:"legs"`
		}

		target := record.FromStruct(Cricket{Name: "gregor", Legs: 6})
		Expect(target).To(HaveKeyWithValue("name", "gregor"))
		Expect(target).To(HaveKeyWithValue("legs", 6))
	})
})
