package physics

import (
	"reflect"
)

// Queries visit entities that hold all of their component types, in
// ascending id order. Returning false from the callback stops the walk.
type Query1[A any] struct{ reg *Registry }
type Query2[A, B any] struct{ reg *Registry }
type Query3[A, B, C any] struct{ reg *Registry }

func MakeQuery1[A any](cmd *Commands) Query1[A]       { return Query1[A]{reg: cmd.app.registry} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B] { return Query2[A, B]{reg: cmd.app.registry} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] {
	return Query3[A, B, C]{reg: cmd.app.registry}
}

func (q Query1[A]) Map(m func(EntityId, *A) bool) {
	tA := reflect.TypeFor[A]()
	for _, id := range q.reg.ids(tA) {
		a, _ := q.reg.get(tA, id)
		if !m(id, a.(*A)) {
			return
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool) {
	tA, tB := reflect.TypeFor[A](), reflect.TypeFor[B]()
	for _, id := range q.reg.ids(tA) {
		a, _ := q.reg.get(tA, id)
		b, ok := q.reg.get(tB, id)
		if !ok {
			continue
		}
		if !m(id, a.(*A), b.(*B)) {
			return
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool) {
	tA, tB, tC := reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]()
	for _, id := range q.reg.ids(tA) {
		a, _ := q.reg.get(tA, id)
		b, okB := q.reg.get(tB, id)
		c, okC := q.reg.get(tC, id)
		if !okB || !okC {
			continue
		}
		if !m(id, a.(*A), b.(*B), c.(*C)) {
			return
		}
	}
}
