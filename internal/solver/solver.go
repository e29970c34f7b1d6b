package solver

import (
	"context"
	"errors"
	"fmt"

	"goggles/internal/nested"
)

// ErrUnknownEntity is returned for tags outside the entity table.
var ErrUnknownEntity = errors.New("unknown entity")

// Solver attempts to bind one request to persisted records.
type Solver interface {
	Solve(ctx context.Context) error
	// Solved reports whether the last Solve fully resolved the request.
	Solved() bool
	// Bindings returns what the last Solve discovered, keyed as inside the
	// entity's root-key block (id, <assoc>_id, nested association blocks).
	Bindings() nested.Map
}

// Registry resolves entity tags to solvers backed by one Finder.
type Registry struct {
	finder Finder
}

// NewRegistry builds a registry over finder.
func NewRegistry(finder Finder) *Registry {
	return &Registry{finder: finder}
}

// SolverFor returns the solver for tag working on request.
func (r *Registry) SolverFor(tag string, request nested.Map) (Solver, error) {
	entity, ok := Lookup(tag)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, tag)
	}
	return r.newSolver(entity, request), nil
}

// RootKey returns the request key holding the payload of tag.
func (r *Registry) RootKey(tag string) (string, error) {
	entity, ok := Lookup(tag)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEntity, tag)
	}
	return entity.RootKey(), nil
}

func (r *Registry) newSolver(entity Entity, request nested.Map) *entitySolver {
	return &entitySolver{
		entity:  entity,
		finder:  r.finder,
		payload: request.Sub(entity.RootKey()),
	}
}

type entitySolver struct {
	entity   Entity
	finder   Finder
	payload  nested.Map
	bindings nested.Map
	solved   bool
}

func (s *entitySolver) Solve(ctx context.Context) error {
	s.bindings = nested.Map{}
	s.solved = false

	fields := s.payload.Clone()
	if fields == nil {
		fields = nested.Map{}
	}

	associationsResolved := true
	for _, tag := range s.entity.Associations {
		assoc := entityByTag[tag]
		ok, err := s.solveAssociation(ctx, assoc, fields)
		if err != nil {
			return err
		}
		if !ok {
			associationsResolved = false
		}
	}

	ownID, found, err := s.findSelf(ctx, fields)
	if err != nil {
		return err
	}
	if found {
		s.bindings["id"] = ownID
	}
	s.solved = found && associationsResolved
	return nil
}

// solveAssociation resolves a nested association block, or verifies a bare
// <assoc>_id reference. Associations absent from the payload are not required.
func (s *entitySolver) solveAssociation(ctx context.Context, assoc Entity, fields nested.Map) (bool, error) {
	key := assoc.RootKey()
	fk := key + "_id"

	if sub := s.payload.Sub(key); sub != nil {
		child := &entitySolver{entity: assoc, finder: s.finder, payload: sub}
		if err := child.Solve(ctx); err != nil {
			return false, err
		}
		childBindings := child.Bindings()
		if len(childBindings) > 0 {
			s.bindings[key] = childBindings
		}
		if !child.Solved() {
			return false, nil
		}
		id, _ := nested.Int64(childBindings["id"])
		s.bindings[fk] = id
		fields[fk] = id
		return true, nil
	}

	raw, present := s.payload[fk]
	if !present {
		return true, nil
	}
	id, ok := nested.Int64(raw)
	if !ok || id <= 0 {
		return false, nil
	}
	exists, err := s.finder.Exists(ctx, assoc.Table, id)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *entitySolver) findSelf(ctx context.Context, fields nested.Map) (int64, bool, error) {
	if raw, present := fields["id"]; present {
		if id, ok := nested.Int64(raw); ok && id > 0 {
			exists, err := s.finder.Exists(ctx, s.entity.Table, id)
			if err != nil {
				return 0, false, err
			}
			if exists {
				return id, true, nil
			}
		}
	}

	criteria := make(map[string]any, len(s.entity.NaturalKey))
	for _, column := range s.entity.NaturalKey {
		value, present := fields[column]
		if !present || nested.IsBlank(value) {
			return 0, false, nil
		}
		if _, isMap := nested.AsMap(value); isMap {
			return 0, false, nil
		}
		criteria[column] = value
	}
	return s.finder.FindID(ctx, s.entity.Table, criteria)
}

func (s *entitySolver) Solved() bool {
	return s.solved
}

func (s *entitySolver) Bindings() nested.Map {
	return s.bindings.Clone()
}
