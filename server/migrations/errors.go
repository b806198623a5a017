package migrations

type MigrationErrorCode string

const (
	MigrationErrorBrokenChain        = "broken_chain_revision"
	MigrationErrorInvalidRename      = "invalid_rename"
	MigrationErrorInvalidTransform   = "invalid_transform"
	MigrationErrorFieldNotFound      = "field_not_found"
	MigrationErrorDuplicatedType     = "duplicated_type"
	MigrationErrorTypeNotFound       = "type_not_found"
	MigrationErrorInvalidDescription = "invalid_description"
)
