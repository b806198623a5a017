package manifest

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"molt/server/migrations"
	"molt/utils"
)

//Manifest is the single migration file a team works off of: the record types
//it declares and every migration applied to them, in development order.
//Merging schema changes means appending to the bottom of this file.
type Manifest struct {
	Types      []string                           `json:"types"`
	Migrations []*migrations.MigrationDescription `json:"migrations"`
}

//Load builds a fully populated registry from a manifest file.
func Load(path string, transforms migrations.TransformTable) (*migrations.Registry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can`t open migration manifest '%s'", path)
	}
	defer utils.CloseFile(file)

	registry, err := Parse(file, transforms)
	if err != nil {
		return nil, errors.Wrapf(err, "can`t load migration manifest '%s'", path)
	}
	return registry, nil
}

//Parse reads a manifest and replays it into a fresh registry: types are
//registered first, then each described migration is appended to its chain.
func Parse(inputReader io.Reader, transforms migrations.TransformTable) (*migrations.Registry, error) {
	manifest := Manifest{}
	if err := json.NewDecoder(inputReader).Decode(&manifest); err != nil {
		return nil, errors.Wrap(err, "manifest is not valid JSON")
	}

	registry := migrations.NewRegistry()
	for _, name := range manifest.Types {
		if _, err := registry.Add(name); err != nil {
			return nil, err
		}
	}

	migrationFactory := migrations.NewMigrationFactory(transforms)
	for _, description := range manifest.Migrations {
		chain, err := registry.Chain(description.ApplyTo)
		if err != nil {
			return nil, err
		}
		step, err := migrationFactory.Factory(description)
		if err != nil {
			return nil, err
		}
		if err := chain.Append(step); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
