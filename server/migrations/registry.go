package migrations

import (
	"fmt"
	"sort"

	"molt/server/errors"
	"molt/server/record"
)

//Registry maps a type name to exactly one RevisionChain. It replaces ambient
//process-wide state with an explicit object: construct it at startup, register
//every type and its migrations, then hand it to whatever serves records.
//There is no deregistration.
type Registry struct {
	chains    map[string]*RevisionChain
	migrators map[string]*Migrator
}

func NewRegistry() *Registry {
	return &Registry{
		chains:    make(map[string]*RevisionChain),
		migrators: make(map[string]*Migrator),
	}
}

//Add registers a new type and returns its empty chain.
func (registry *Registry) Add(name string) (*RevisionChain, error) {
	if _, ok := registry.chains[name]; ok {
		return nil, errors.NewValidationError(
			MigrationErrorDuplicatedType,
			fmt.Sprintf("Type '%s' is already registered", name),
			nil,
		)
	}
	chain := NewRevisionChain(name)
	registry.chains[name] = chain
	return chain, nil
}

func (registry *Registry) Chain(name string) (*RevisionChain, error) {
	chain, ok := registry.chains[name]
	if !ok {
		return nil, errors.NewNotFoundError(
			MigrationErrorTypeNotFound,
			fmt.Sprintf("Type '%s' is not registered; did you forget to register it?", name),
			nil,
		)
	}
	return chain, nil
}

func (registry *Registry) Has(name string) bool {
	_, ok := registry.chains[name]
	return ok
}

//List returns the registered chains sorted by type name.
func (registry *Registry) List() []*RevisionChain {
	names := make([]string, 0, len(registry.chains))
	for name := range registry.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	chains := make([]*RevisionChain, 0, len(names))
	for _, name := range names {
		chains = append(chains, registry.chains[name])
	}
	return chains
}

//Migration appends a fresh step to the named chain and returns it for
//building up with chained calls. Builder errors recorded after this point
//surface on the step`s Err and on any Advance over it.
func (registry *Registry) Migration(name string) (*MigrationStep, error) {
	chain, err := registry.Chain(name)
	if err != nil {
		return nil, err
	}
	step := NewMigrationStep()
	if err := chain.Append(step); err != nil {
		return nil, err
	}
	return step, nil
}

//Objects returns the Migrator front-end for the named type. Migrators are
//cached, one per type.
func (registry *Registry) Objects(name string) (*Migrator, error) {
	if migrator, ok := registry.migrators[name]; ok {
		return migrator, nil
	}
	chain, err := registry.Chain(name)
	if err != nil {
		return nil, err
	}
	migrator := &Migrator{chain: chain}
	registry.migrators[name] = migrator
	return migrator, nil
}

//Migrator is the convenience front-end for one type`s chain.
type Migrator struct {
	chain *RevisionChain
}

//Tag marks a freshly constructed record as already at the head revision.
func (migrator *Migrator) Tag(target record.Record) record.Record {
	return migrator.chain.Tag(target)
}

//Migrate advances the record to the head revision and returns it.
func (migrator *Migrator) Migrate(target record.Record) (record.Record, error) {
	return migrator.chain.Advance(target)
}
