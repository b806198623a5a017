package migrations

import (
	"encoding/json"
	"fmt"
	"io"

	"molt/server/errors"
)

const (
	AddFieldOperation    = "addField"
	RemoveFieldOperation = "removeField"
	RenameFieldOperation = "renameField"
	ModifyFieldOperation = "modifyField"
)

//MigrationDescription is the wire representation of one migration step: the
//type it applies to and the ordered field operations to perform.
type MigrationDescription struct {
	ApplyTo    string                          `json:"applyTo"`
	Operations []MigrationOperationDescription `json:"operations"`
}

type MigrationOperationDescription struct {
	Type      string      `json:"type"`
	Field     string      `json:"field"`
	Default   interface{} `json:"default,omitempty"`
	NewName   string      `json:"newName,omitempty"`
	Transform string      `json:"transform,omitempty"`
}

func MigrationDescriptionFromJson(inputReader io.Reader) (*MigrationDescription, error) {
	migrationDescription := MigrationDescription{}
	if err := json.NewDecoder(inputReader).Decode(&migrationDescription); err != nil {
		return nil, errors.NewValidationError(
			MigrationErrorInvalidDescription,
			fmt.Sprintf("Migration description is invalid: %s", err.Error()),
			nil,
		)
	}
	return &migrationDescription, nil
}

//TransformTable resolves modify transforms referenced by name from
//declarative descriptions; function values cannot travel in JSON, so the
//caller seeds the table at startup.
type TransformTable map[string]TransformFunc

//MigrationFactory builds migration steps out of their wire descriptions.
type MigrationFactory struct {
	transforms TransformTable
}

func NewMigrationFactory(transforms TransformTable) *MigrationFactory {
	if transforms == nil {
		transforms = TransformTable{}
	}
	return &MigrationFactory{transforms: transforms}
}

//Factory translates every described operation into a builder call on a fresh
//step, keeping the described order.
func (factory *MigrationFactory) Factory(description *MigrationDescription) (*MigrationStep, error) {
	step := NewMigrationStep()
	for i, operation := range description.Operations {
		if operation.Field == "" {
			return nil, factory.invalidOperationError(i, "missing field name")
		}
		switch operation.Type {
		case AddFieldOperation:
			step.Add(map[string]interface{}{operation.Field: operation.Default})
		case RemoveFieldOperation:
			step.Delete(operation.Field)
		case RenameFieldOperation:
			if operation.NewName == "" {
				return nil, factory.invalidOperationError(i, "missing new field name")
			}
			step.Rename(map[string]string{operation.Field: operation.NewName})
		case ModifyFieldOperation:
			transform, ok := factory.transforms[operation.Transform]
			if !ok {
				return nil, factory.invalidOperationError(i, fmt.Sprintf("unknown transform '%s'", operation.Transform))
			}
			step.Modify(map[string]TransformFunc{operation.Field: transform})
		default:
			return nil, factory.invalidOperationError(i, fmt.Sprintf("unknown operation type '%s'", operation.Type))
		}
	}
	if err := step.Err(); err != nil {
		return nil, err
	}
	return step, nil
}

func (factory *MigrationFactory) invalidOperationError(position int, reason string) *errors.ServerError {
	return errors.NewValidationError(
		MigrationErrorInvalidDescription,
		fmt.Sprintf("Operation #%d of migration description is invalid: %s", position, reason),
		nil,
	)
}
