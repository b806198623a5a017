package migrations

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"

	"molt/server/errors"
	"molt/server/record"
)

//RevisionChain owns the linear schema history of one record type: the ordered
//sequence of migration steps, the identifier of each revision and the current
//head. Revision identifiers are derived from the type name and the append
//position, not from step content, so two independently authored chains sharing
//a name and position collide; callers are expected to keep a single migration
//history per type, merged in development order.
//
//A chain is meant to be fully built before records are advanced against it.
//Append performs no locking; interleaving Append with Advance needs external
//synchronization.
type RevisionChain struct {
	name         string
	baseRevision string
	next         map[string]string
	stepOf       map[string]*MigrationStep
	head         string
}

func NewRevisionChain(name string) *RevisionChain {
	base := baseRevisionHash(name)
	return &RevisionChain{
		name:         name,
		baseRevision: base,
		next:         make(map[string]string),
		stepOf:       make(map[string]*MigrationStep),
		head:         base,
	}
}

func (chain *RevisionChain) Name() string {
	return chain.name
}

//Head returns the most recently appended revision, or the base revision for a
//chain with no steps.
func (chain *RevisionChain) Head() string {
	return chain.head
}

func (chain *RevisionChain) BaseRevision() string {
	return chain.baseRevision
}

//Length returns the number of appended steps.
func (chain *RevisionChain) Length() int {
	return len(chain.next)
}

//Append links a new revision after the current head and moves the head to it.
//The history is append-only: steps can neither be removed nor inserted in the
//middle, which keeps it strictly linear.
func (chain *RevisionChain) Append(step *MigrationStep) error {
	if err := step.Err(); err != nil {
		return err
	}
	newRevision := revisionHash(chain.name, len(chain.next))
	chain.next[chain.head] = newRevision
	chain.stepOf[newRevision] = step
	chain.head = newRevision
	return nil
}

//Advance migrates a record from its current revision to the head, applying
//each unseen step in order. The record is re-tagged after every successfully
//applied step, so a record left behind by a failing step resumes from the last
//completed revision on the next call. Advancing a record already at head is a
//no-op. A record whose revision the chain never produced is left untouched
//and reported as a broken chain.
func (chain *RevisionChain) Advance(target record.Record) (record.Record, error) {
	revision, ok := target.Revision()
	if !ok {
		//a present but non-string revision can never match any identifier this
		//chain produced; treat it as a dead end instead of replaying history
		if target.HasRevision() {
			return nil, errors.NewValidationError(
				MigrationErrorBrokenChain,
				fmt.Sprintf("Record of type '%s' is at dead end revision '%v'", chain.name, target[record.RevisionAttribute]),
				nil,
			)
		}
		revision = chain.baseRevision
		target.SetRevision(revision)
	}

	for revision != chain.head {
		nextRevision, ok := chain.next[revision]
		if !ok {
			return nil, errors.NewValidationError(
				MigrationErrorBrokenChain,
				fmt.Sprintf("Record of type '%s' is at dead end revision '%s'", chain.name, revision),
				nil,
			)
		}
		if err := chain.stepOf[nextRevision].Apply(target); err != nil {
			return nil, err
		}
		target.SetRevision(nextRevision)
		revision = nextRevision
	}
	return target, nil
}

//Tag marks a record as already migrated to the head unless it carries a
//revision. Used for freshly constructed records which are up to date by
//definition and must not replay the whole history.
func (chain *RevisionChain) Tag(target record.Record) record.Record {
	if !target.HasRevision() {
		target.SetRevision(chain.head)
	}
	return target
}

//The base revision hashes the type name alone.
func baseRevisionHash(name string) string {
	hash := sha1.New()
	hash.Write([]byte(name))
	return hex.EncodeToString(hash.Sum(nil))
}

//Appended revisions hash the type name followed by the decimal position of
//the step in the chain. Identifiers are positional, not content-addressed.
func revisionHash(name string, position int) string {
	hash := sha1.New()
	hash.Write([]byte(name))
	hash.Write([]byte(strconv.Itoa(position)))
	return hex.EncodeToString(hash.Sum(nil))
}
