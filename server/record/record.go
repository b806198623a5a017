package record

import (
	"github.com/fatih/structs"
	"github.com/getlantern/deepcopy"
)

//RevisionAttribute is the reserved field holding the record`s current revision identifier.
//It is stored alongside the record`s other fields in whatever medium the caller uses.
const RevisionAttribute = "_revision"

//Record is an open mapping from field name to value, representing one document/entity instance.
//It carries no schema; the only reserved field is RevisionAttribute.
type Record map[string]interface{}

//Revision returns the record`s revision identifier; ok is false when the
//attribute is absent or does not hold a string. Use HasRevision to tell a
//missing attribute from a malformed one.
func (record Record) Revision() (string, bool) {
	revision, ok := record[RevisionAttribute].(string)
	return revision, ok
}

func (record Record) HasRevision() bool {
	_, present := record[RevisionAttribute]
	return present
}

func (record Record) SetRevision(revision string) {
	record[RevisionAttribute] = revision
}

func (record Record) Clone() Record {
	recordCopy := Record{}
	deepcopy.Copy(&recordCopy, record)
	return recordCopy
}

//FromStruct builds a Record from a typed value for callers which model their
//documents as structs; field names follow the `structs` tags.
func FromStruct(value interface{}) Record {
	return Record(structs.Map(value))
}
