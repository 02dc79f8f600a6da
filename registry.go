package physics

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

type EntityId uint64

// Registry stores components per type, keyed by entity. Entities are plain
// ids; a Body and a renderable transform are attached to the same id instead
// of being tied together by a type hierarchy.
type Registry struct {
	idLock   sync.Mutex
	nextId   EntityId
	entities map[EntityId]struct{}
	storages map[reflect.Type]map[EntityId]any
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[EntityId]struct{}),
		storages: make(map[reflect.Type]map[EntityId]any),
	}
}

func (r *Registry) reserveId() EntityId {
	r.idLock.Lock()
	defer r.idLock.Unlock()

	id := r.nextId
	r.nextId++
	return id
}

func (r *Registry) insert(id EntityId, components ...any) {
	r.entities[id] = struct{}{}
	r.addComponents(id, components...)
}

func (r *Registry) addComponents(id EntityId, components ...any) {
	if _, ok := r.entities[id]; !ok {
		return
	}
	for _, c := range components {
		t, ptr := componentPointer(c)
		storage, ok := r.storages[t]
		if !ok {
			storage = make(map[EntityId]any)
			r.storages[t] = storage
		}
		storage[id] = ptr
	}
}

func (r *Registry) removeComponents(id EntityId, components ...any) {
	for _, c := range components {
		t := componentType(c)
		delete(r.storages[t], id)
	}
}

func (r *Registry) remove(id EntityId) {
	for _, storage := range r.storages {
		delete(storage, id)
	}
	delete(r.entities, id)
}

func (r *Registry) Alive(id EntityId) bool {
	_, ok := r.entities[id]
	return ok
}

func (r *Registry) Len() int {
	return len(r.entities)
}

// ids returns the entities holding a component of type t in ascending order,
// so every query visits entities in the same order.
func (r *Registry) ids(t reflect.Type) []EntityId {
	storage := r.storages[t]
	res := make([]EntityId, 0, len(storage))
	for id := range storage {
		res = append(res, id)
	}
	slices.Sort(res)
	return res
}

func (r *Registry) get(t reflect.Type, id EntityId) (any, bool) {
	c, ok := r.storages[t][id]
	return c, ok
}

// Components returns every component attached to id.
func (r *Registry) Components(id EntityId) []any {
	var res []any
	for _, storage := range r.storages {
		if c, ok := storage[id]; ok {
			res = append(res, reflect.ValueOf(c).Elem().Interface())
		}
	}
	return res
}

// GetComponent returns the component of type T attached to id, or nil.
func GetComponent[T any](r *Registry, id EntityId) *T {
	c, ok := r.get(reflect.TypeFor[T](), id)
	if !ok {
		return nil
	}
	return c.(*T)
}

func componentType(component any) reflect.Type {
	t := reflect.TypeOf(component)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Errorf("expected component to be a struct or a pointer to a struct, got %s", t.Kind()))
	}
	return t
}

// componentPointer copies component into registry owned storage and returns
// its type and a pointer to the copy.
func componentPointer(component any) (reflect.Type, any) {
	t := componentType(component)
	v := reflect.ValueOf(component)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	ptr := reflect.New(t)
	ptr.Elem().Set(v)
	return t, ptr.Interface()
}
