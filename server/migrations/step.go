package migrations

import (
	"fmt"
	"sort"

	"molt/server/errors"
	"molt/server/record"
)

//TransformFunc rewrites a single field`s value during a modify action.
type TransformFunc func(value interface{}) interface{}

type actionKind int

const (
	addAction actionKind = iota
	deleteAction
	renameAction
	modifyAction
)

//One field-level operation. The set of kinds is closed, so actions are a
//tagged variant executed by a switch rather than dispatched on runtime types.
type action struct {
	kind      actionKind
	field     string
	value     interface{}
	newName   string
	transform TransformFunc
}

//MigrationStep is an ordered batch of field-level operations transforming a
//record from one revision to the next. It is built up via chained calls and
//must not be mutated once records have been advanced over it.
type MigrationStep struct {
	actions []action
	err     *errors.ServerError
}

func NewMigrationStep() *MigrationStep {
	return &MigrationStep{}
}

//Err returns the first declaration-time error recorded by the builder, if any.
//A step carrying such an error is never extended past it and refuses to apply.
func (step *MigrationStep) Err() error {
	if step.err == nil {
		return nil
	}
	return step.err
}

//Add appends one add action per entry. Entries of a single call are appended
//in sorted field order so that action order stays deterministic; calls keep
//their declaration order.
func (step *MigrationStep) Add(fields map[string]interface{}) *MigrationStep {
	if step.err != nil {
		return step
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		step.actions = append(step.actions, action{kind: addAction, field: name, value: fields[name]})
	}
	return step
}

//Delete appends one delete action per name.
func (step *MigrationStep) Delete(fields ...string) *MigrationStep {
	if step.err != nil {
		return step
	}
	for _, name := range fields {
		step.actions = append(step.actions, action{kind: deleteAction, field: name})
	}
	return step
}

//Rename appends one rename action per pair. Renaming a field to its own name
//is always an authoring mistake and fails the builder right away.
func (step *MigrationStep) Rename(fields map[string]string) *MigrationStep {
	if step.err != nil {
		return step
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == fields[name] {
			step.err = errors.NewValidationError(
				MigrationErrorInvalidRename,
				fmt.Sprintf("Attempting to rename field '%s' to the same name", name),
				nil,
			)
			return step
		}
		step.actions = append(step.actions, action{kind: renameAction, field: name, newName: fields[name]})
	}
	return step
}

//Modify appends one modify action per entry; the transform replaces the
//field`s current value at execution time.
func (step *MigrationStep) Modify(fields map[string]TransformFunc) *MigrationStep {
	if step.err != nil {
		return step
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if fields[name] == nil {
			step.err = errors.NewValidationError(
				MigrationErrorInvalidTransform,
				fmt.Sprintf("Must supply a transform function as a modifier for field '%s'", name),
				nil,
			)
			return step
		}
		step.actions = append(step.actions, action{kind: modifyAction, field: name, transform: fields[name]})
	}
	return step
}

//Apply executes every action in declared order against the record,
//short-circuiting on the first failure. There is no per-action rollback:
//actions executed before the failing one remain applied.
func (step *MigrationStep) Apply(target record.Record) error {
	if step.err != nil {
		return step.err
	}
	for i := range step.actions {
		if err := step.actions[i].apply(target); err != nil {
			return err
		}
	}
	return nil
}

func (a *action) apply(target record.Record) error {
	switch a.kind {
	case addAction:
		target[a.field] = a.value
	case deleteAction:
		if _, ok := target[a.field]; !ok {
			return fieldNotFoundError("delete", a.field)
		}
		delete(target, a.field)
	case renameAction:
		value, ok := target[a.field]
		if !ok {
			return fieldNotFoundError("rename", a.field)
		}
		target[a.newName] = value
		delete(target, a.field)
	case modifyAction:
		value, ok := target[a.field]
		if !ok {
			return fieldNotFoundError("modify", a.field)
		}
		target[a.field] = a.transform(value)
	}
	return nil
}

func fieldNotFoundError(operation string, field string) *errors.ServerError {
	return errors.NewNotFoundError(
		MigrationErrorFieldNotFound,
		fmt.Sprintf("Can`t %s field '%s': the record has no such field", operation, field),
		nil,
	)
}
