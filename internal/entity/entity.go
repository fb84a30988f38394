// Package entity provides the id-indexed registry that the simulation core
// uses to resolve participants without holding hard references. Every
// addressable simulation object (agent, market, location, commodity) is an
// Entity with a stable integer id; the registry is owned by a simulation
// instance, so multiple simulations can coexist in one process.
package entity

import (
	"macrosim.com/pkg/xerr"
)

// ID is a global entity id. Ids increase monotonically from 0 and are never
// reused. Order ids live in the negative space, so the two can never collide.
type ID int64

// None is the zero ID. The first registered entity gets id 0, which by
// convention is the simulation itself, so None never names a participant.
const None ID = -1

type Entity interface {
	EntityID() ID
	EntityName() string
	EntityKind() string
	IsDead() bool

	base() *Base
}

// Base carries the common entity fields. Embed it to satisfy Entity.
type Base struct {
	ID   ID
	Name string
	Kind string
	Dead bool
}

func (b *Base) EntityID() ID       { return b.ID }
func (b *Base) EntityName() string { return b.Name }
func (b *Base) EntityKind() string { return b.Kind }
func (b *Base) IsDead() bool       { return b.Dead }

func (b *Base) base() *Base { return b }

// Registry is an arena of entities indexed by id. It holds the only strong
// reference used for lookups; the authoritative owner is the simulation's
// entity list. Killing an entity marks it dead and drops it from the arena,
// so lookups distinguish "never existed" from "existed, now dead".
type Registry struct {
	nextID ID
	ents   map[ID]Entity
}

func NewRegistry() *Registry {
	return &Registry{ents: make(map[ID]Entity, 64)}
}

// Add assigns the next id to e and indexes it. The id is stored on the
// entity's Base.
func (r *Registry) Add(e Entity) ID {
	id := r.nextID
	r.nextID++
	e.base().ID = id
	r.ents[id] = e
	return id
}

// Get resolves an entity by id. The error distinguishes never-allocated ids
// (RecordNotFound) from ids whose entity has been killed (RecordDead).
func (r *Registry) Get(id ID) (Entity, error) {
	e, ok := r.ents[id]
	if ok {
		if e.IsDead() {
			// Possible if a caller marked the Base dead without going
			// through Kill; treat the same as a killed entity.
			return nil, xerr.Newf(xerr.RecordDead, "entity %d is dead", id)
		}
		return e, nil
	}
	if id >= 0 && id < r.nextID {
		return nil, xerr.Newf(xerr.RecordDead, "entity %d is dead", id)
	}
	return nil, xerr.Newf(xerr.RecordNotFound, "entity %d does not exist", id)
}

// Kill marks the entity dead and removes it from the arena. Unknown ids are
// a no-op: the entity is already gone.
func (r *Registry) Kill(id ID) {
	if e, ok := r.ents[id]; ok {
		e.base().Dead = true
		delete(r.ents, id)
	}
}

func (r *Registry) Len() int { return len(r.ents) }

// Each calls fn for every live entity in id order.
func (r *Registry) Each(fn func(Entity)) {
	for id := ID(0); id < r.nextID; id++ {
		if e, ok := r.ents[id]; ok {
			fn(e)
		}
	}
}

// IsNotExist reports a "never existed" lookup failure.
func IsNotExist(err error) bool { return xerr.IsCode(err, xerr.RecordNotFound) }

// IsDead reports an "existed, now dead" lookup failure.
func IsDead(err error) bool { return xerr.IsCode(err, xerr.RecordDead) }

// IsGone reports either lookup failure. The scheduler treats both the same
// way when firing an event.
func IsGone(err error) bool { return IsNotExist(err) || IsDead(err) }
