package migrations_test

import (
	"bytes"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"molt/server/errors"
	"molt/server/migrations"
	"molt/server/record"
)

var _ = Describe("MigrationFactory", func() {
	var factory *migrations.MigrationFactory

	BeforeEach(func() {
		factory = migrations.NewMigrationFactory(migrations.TransformTable{
			"double": doubleString,
		})
	})

	It("builds a step out of described operations in order", func() {
		step, err := factory.Factory(&migrations.MigrationDescription{
			ApplyTo: "cricket",
			Operations: []migrations.MigrationOperationDescription{
				{Type: migrations.AddFieldOperation, Field: "foo", Default: "bar"},
				{Type: migrations.RenameFieldOperation, Field: "foo", NewName: "baz"},
				{Type: migrations.ModifyFieldOperation, Field: "baz", Transform: "double"},
			},
		})
		Expect(err).To(BeNil())

		target := record.Record{}
		Expect(step.Apply(target)).To(BeNil())
		Expect(target).To(HaveKeyWithValue("baz", "barbar"))
		Expect(target).NotTo(HaveKey("foo"))
	})

	It("rejects an operation without a field name", func() {
		_, err := factory.Factory(&migrations.MigrationDescription{
			ApplyTo:    "cricket",
			Operations: []migrations.MigrationOperationDescription{{Type: migrations.AddFieldOperation}},
		})
		Expect(err).NotTo(BeNil())
		Expect(err.(*errors.ServerError).Code).To(Equal(migrations.MigrationErrorInvalidDescription))
	})

	It("rejects an unknown operation type", func() {
		_, err := factory.Factory(&migrations.MigrationDescription{
			ApplyTo:    "cricket",
			Operations: []migrations.MigrationOperationDescription{{Type: "dropTable", Field: "foo"}},
		})
		Expect(err).NotTo(BeNil())
		Expect(err.(*errors.ServerError).Code).To(Equal(migrations.MigrationErrorInvalidDescription))
	})

	It("rejects a modify operation referencing an unknown transform", func() {
		_, err := factory.Factory(&migrations.MigrationDescription{
			ApplyTo:    "cricket",
			Operations: []migrations.MigrationOperationDescription{{Type: migrations.ModifyFieldOperation, Field: "foo", Transform: "triple"}},
		})
		Expect(err).NotTo(BeNil())
		Expect(err.(*errors.ServerError).Code).To(Equal(migrations.MigrationErrorInvalidDescription))
	})

	It("surfaces builder errors for a described rename to the same name", func() {
		_, err := factory.Factory(&migrations.MigrationDescription{
			ApplyTo:    "cricket",
			Operations: []migrations.MigrationOperationDescription{{Type: migrations.RenameFieldOperation, Field: "same", NewName: "same"}},
		})
		Expect(err).NotTo(BeNil())
		Expect(err.(*errors.ServerError).Code).To(Equal(migrations.MigrationErrorInvalidRename))
	})
})

var _ = Describe("MigrationDescriptionFromJson", func() {
	It("decodes a description from its wire representation", func() {
		data := []byte(`{"applyTo": "cricket", "operations": [{"type": "addField", "field": "foo", "default": "bar"}]}`)
		description, err := migrations.MigrationDescriptionFromJson(bytes.NewReader(data))
		Expect(err).To(BeNil())
		Expect(description.ApplyTo).To(Equal("cricket"))
		Expect(description.Operations).To(HaveLen(1))
		Expect(description.Operations[0].Default).To(Equal("bar"))
	})

	It("rejects malformed JSON", func() {
		_, err := migrations.MigrationDescriptionFromJson(bytes.NewReader([]byte(`{"applyTo": `)))
		Expect(err).NotTo(BeNil())
		Expect(err.(*errors.ServerError).Code).To(Equal(migrations.MigrationErrorInvalidDescription))
	})
})
