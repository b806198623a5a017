package manifest_test

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"molt/server/errors"
	"molt/server/migrations"
	"molt/server/migrations/manifest"
	"molt/server/record"
)

const manifestData = `{
	"types": ["cricket"],
	"migrations": [
		{"applyTo": "cricket", "operations": [{"type": "addField", "field": "foo", "default": "bar"}]},
		{"applyTo": "cricket", "operations": [
			{"type": "renameField", "field": "foo", "newName": "baz"},
			{"type": "addField", "field": "looks", "default": "ugly"}
		]},
		{"applyTo": "cricket", "operations": [{"type": "removeField", "field": "looks"}]},
		{"applyTo": "cricket", "operations": [{"type": "modifyField", "field": "baz", "transform": "double"}]}
	]
}`

var transforms = migrations.TransformTable{
	"double": func(value interface{}) interface{} { return value.(string) + value.(string) },
}

var _ = Describe("Manifest", func() {

	It("replays a manifest into a populated registry", func() {
		registry, err := manifest.Parse(bytes.NewReader([]byte(manifestData)), transforms)
		Expect(err).To(BeNil())

		chain, err := registry.Chain("cricket")
		Expect(err).To(BeNil())
		Expect(chain.Length()).To(Equal(4))

		migrated, err := chain.Advance(record.Record{})
		Expect(err).To(BeNil())
		Expect(migrated).To(HaveKeyWithValue("baz", "barbar"))
		Expect(migrated).NotTo(HaveKey("looks"))
	})

	It("rejects a migration applying to an undeclared type", func() {
		data := `{"types": [], "migrations": [{"applyTo": "beetle", "operations": []}]}`
		_, err := manifest.Parse(bytes.NewReader([]byte(data)), nil)
		Expect(err).NotTo(BeNil())
		Expect(err.(*errors.ServerError).Code).To(Equal(migrations.MigrationErrorTypeNotFound))
	})

	It("rejects a type declared twice", func() {
		data := `{"types": ["cricket", "cricket"]}`
		_, err := manifest.Parse(bytes.NewReader([]byte(data)), nil)
		Expect(err).NotTo(BeNil())
		Expect(err.(*errors.ServerError).Code).To(Equal(migrations.MigrationErrorDuplicatedType))
	})

	It("rejects malformed JSON", func() {
		_, err := manifest.Parse(bytes.NewReader([]byte(`{"types": `)), nil)
		Expect(err).NotTo(BeNil())
	})

	Describe("Load", func() {
		It("loads a manifest file from disk", func() {
			path := filepath.Join(os.TempDir(), "molt_manifest_test.json")
			Expect(ioutil.WriteFile(path, []byte(manifestData), 0644)).To(BeNil())
			defer os.Remove(path)

			registry, err := manifest.Load(path, transforms)
			Expect(err).To(BeNil())
			Expect(registry.Has("cricket")).To(BeTrue())
		})

		It("reports a missing manifest file", func() {
			_, err := manifest.Load(filepath.Join(os.TempDir(), "does_not_exist.json"), nil)
			Expect(err).NotTo(BeNil())
			Expect(err.Error()).To(ContainSubstring("does_not_exist.json"))
		})
	})
})
