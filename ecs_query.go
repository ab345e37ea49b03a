package gekko

import (
	"reflect"
	"slices"
)

// Queries visit every entity that has all requested components, in ascending
// EntityId order. Components passed as optionals may be missing, in which case
// the callback receives nil for them. Returning false from the callback stops
// the iteration. Component pointers are only valid until the next flush.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }
type Query3[A, B, C any] struct{ ecs *Ecs }
type Query4[A, B, C, D any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]             { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B]       { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] { return Query3[A, B, C]{ecs: cmd.app.ecs} }
func MakeQuery4[A, B, C, D any](cmd *Commands) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{ecs: cmd.app.ecs}
}

type queryRow struct {
	eid  EntityId
	arch *archetype
	row  row
}

// match collects the rows of all archetypes that carry every id in required,
// treating the ids in optional as satisfied even when absent.
func (ecs *Ecs) match(required []componentId, optional set[componentId]) []queryRow {
	var rows []queryRow
	for _, arch := range ecs.archetypes {
		matches := true
		for _, id := range required {
			if _, ok := arch.componentData[id]; ok {
				continue
			}
			if _, ok := optional[id]; ok {
				continue
			}
			matches = false
			break
		}
		if !matches {
			continue
		}
		for eid, r := range arch.entities {
			rows = append(rows, queryRow{eid: eid, arch: arch, row: r})
		}
	}
	slices.SortFunc(rows, func(a, b queryRow) int {
		switch {
		case a.eid < b.eid:
			return -1
		case a.eid > b.eid:
			return 1
		}
		return 0
	})
	return rows
}

// column returns a pointer to the T component at r, or nil when the
// archetype doesn't carry it.
func column[T any](r queryRow, id componentId) *T {
	data, ok := r.arch.componentData[id]
	if !ok {
		return nil
	}
	return &data.([]T)[r.row]
}

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	id1 := identifyComponents1[A](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, r := range q.ecs.match([]componentId{id1}, opt) {
		if !m(r.eid, column[A](r, id1)) {
			return
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	id1, id2 := identifyComponents2[A, B](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, r := range q.ecs.match([]componentId{id1, id2}, opt) {
		if !m(r.eid, column[A](r, id1), column[B](r, id2)) {
			return
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	id1, id2, id3 := identifyComponents3[A, B, C](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, r := range q.ecs.match([]componentId{id1, id2, id3}, opt) {
		if !m(r.eid, column[A](r, id1), column[B](r, id2), column[C](r, id3)) {
			return
		}
	}
}

func (q Query4[A, B, C, D]) Map(m func(EntityId, *A, *B, *C, *D) bool, optionals ...any) {
	id1, id2, id3, id4 := identifyComponents4[A, B, C, D](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, r := range q.ecs.match([]componentId{id1, id2, id3, id4}, opt) {
		if !m(r.eid, column[A](r, id1), column[B](r, id2), column[C](r, id3), column[D](r, id4)) {
			return
		}
	}
}

func identifyOptionals(ecs *Ecs, components ...any) set[componentId] {
	res := make(set[componentId], len(components))
	for _, c := range components {
		res[ecs.getComponentId(componentType(c))] = struct{}{}
	}
	return res
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func identifyComponents1[A any](ecs *Ecs) componentId {
	return ecs.getComponentId(typeOf[A]())
}

func identifyComponents2[A, B any](ecs *Ecs) (componentId, componentId) {
	return ecs.getComponentId(typeOf[A]()),
		ecs.getComponentId(typeOf[B]())
}

func identifyComponents3[A, B, C any](ecs *Ecs) (componentId, componentId, componentId) {
	return ecs.getComponentId(typeOf[A]()),
		ecs.getComponentId(typeOf[B]()),
		ecs.getComponentId(typeOf[C]())
}

func identifyComponents4[A, B, C, D any](ecs *Ecs) (componentId, componentId, componentId, componentId) {
	return ecs.getComponentId(typeOf[A]()),
		ecs.getComponentId(typeOf[B]()),
		ecs.getComponentId(typeOf[C]()),
		ecs.getComponentId(typeOf[D]())
}
