package main

import "strings"

// Dict is the compiler's arena of entities plus the two name indices
// described in §3: the "as currently seen" map used by lookups, and the
// "as first defined" map that special registers and library bootstrap
// code resolve through regardless of later redefinition.
type Dict struct {
	entities    []*Entity
	byName      map[string]EntityID
	firstByName map[string]EntityID
	allEntities []EntityID
	order       int
}

func NewDict() *Dict {
	return &Dict{
		byName:      make(map[string]EntityID),
		firstByName: make(map[string]EntityID),
	}
}

// New allocates a fresh entity in the arena. It is not yet visible to
// Lookup; call Enter once the entity's name and kind-specific fields are
// filled in.
func (d *Dict) New(name string, kind EntityKind, loc Location) *Entity {
	id := EntityID(len(d.entities))
	e := &Entity{
		ID:       id,
		Name:     name,
		Kind:     kind,
		Loc:      loc,
		EndLabel: NoEntity,
		Substitute: NoEntity,
		Flags:    FlagFromSource,
	}
	d.entities = append(d.entities, e)
	return e
}

// Entity resolves an EntityID back to its record, or nil for NoEntity.
func (d *Dict) Entity(id EntityID) *Entity {
	if id == NoEntity || int(id) >= len(d.entities) {
		return nil
	}
	return d.entities[id]
}

func key(name string) string { return strings.ToLower(name) }

// Lookup finds the current binding of name, following redefinitions.
func (d *Dict) Lookup(name string) (*Entity, bool) {
	id, ok := d.byName[key(name)]
	if !ok {
		return nil, false
	}
	return d.entities[id], true
}

// LookupFirst finds the first-ever binding of name; special registers and
// core library words that later get shadowed must resolve through this.
func (d *Dict) LookupFirst(name string) (*Entity, bool) {
	id, ok := d.firstByName[key(name)]
	if !ok {
		return nil, false
	}
	return d.entities[id], true
}

// AllEntities returns the arena in current definition order. The slice is
// owned by Dict; callers must not mutate it.
func (d *Dict) AllEntities() []*Entity {
	out := make([]*Entity, len(d.allEntities))
	for i, id := range d.allEntities {
		out[i] = d.entities[id]
	}
	return out
}

func (d *Dict) removeFromAll(id EntityID) {
	for i, cur := range d.allEntities {
		if cur == id {
			d.allEntities = append(d.allEntities[:i], d.allEntities[i+1:]...)
			return
		}
	}
}

// Enter installs obj into the dictionary under its own name, resolving any
// chain of Forward placeholders that previously occupied that name. This
// is a direct port of enter_object/fix_forward/mask from the source
// compiler: a forward reference, once overridden, must have every opcode
// parameter and reference list across the whole arena rewritten to point
// at the real definition, and any definitions shadowed in between must be
// "unmasked" back into view.
func (d *Dict) Enter(obj *Entity, currentObject *Entity, warn func(string)) {
	obj.Order = d.order
	d.order++

	var previous *Entity
	for {
		prev, ok := d.Lookup(obj.Name)
		if !ok {
			previous = nil
			break
		}
		if prev.Kind != KindForward {
			if prev.Flags.Has(FlagFromSource) && warn != nil {
				warn(prev.Name + " (defined at " + prev.Loc.String() + ")")
			}
			previous = prev
			break
		}
		d.fixForward(prev, obj, currentObject)
		d.mask(prev)
	}

	d.allEntities = append(d.allEntities, obj.ID)

	occurrence := 0
	if previous != nil {
		occurrence = previous.Occurrence + 1
	}
	d.byName[key(obj.Name)] = obj.ID
	if occurrence == 0 {
		d.firstByName[key(obj.Name)] = obj.ID
	}
	obj.Occurrence = occurrence
	obj.Mangled = mangle(obj.Name, occurrence)
}

// fixForward rewrites every opcode argument and reference-list entry that
// points at old to point at new instead, across every entity in the arena
// plus the one currently being compiled (which may not be in allEntities
// yet).
func (d *Dict) fixForward(old, new *Entity, currentObject *Entity) {
	d.removeFromAll(old.ID)
	new.Occurrence = old.Occurrence

	fix := func(v Value) Value {
		if ref, ok := v.(Ref); ok && ref.Entity == old.ID {
			return Ref{Entity: new.ID, Dict: d}
		}
		return v
	}
	rewrite := func(e *Entity) {
		if e == nil || e.Flags.Has(FlagImmediate) {
			return
		}
		for i := range e.Body {
			args := e.Body[i].Args
			for j, a := range args {
				args[j] = fix(a)
			}
		}
		for i, r := range e.Refs {
			if r == old.ID {
				e.Refs[i] = new.ID
			}
		}
	}
	rewrite(currentObject)
	for _, id := range d.allEntities {
		rewrite(d.entities[id])
	}
}

// mask removes obj's dictionary binding and, if an earlier-defined entity
// with the same name still exists in the arena, restores visibility to it.
func (d *Dict) mask(obj *Entity) {
	delete(d.byName, key(obj.Name))
	for _, id := range d.allEntities {
		e := d.entities[id]
		if e != obj && key(e.Name) == key(obj.Name) {
			d.byName[key(e.Name)] = e.ID
		}
	}
}
