package ecs

import "github.com/milk9111/bulletball/ecs/component"

// Values are stored as *T so ForEach callbacks can mutate them in place.

func Add[T any](w *World, e Entity, handle component.ComponentHandle[T], value T) error {
	v := value
	return w.AddComponent(e, handle.Kind(), &v)
}

func Remove[T any](w *World, e Entity, handle component.ComponentHandle[T]) bool {
	return w.RemoveComponent(e, handle.Kind())
}

func Has[T any](w *World, e Entity, handle component.ComponentHandle[T]) bool {
	return w.HasComponent(e, handle.Kind())
}

func Get[T any](w *World, e Entity, handle component.ComponentHandle[T]) (T, bool) {
	var zero T
	value, ok := w.GetComponent(e, handle.Kind())
	if !ok {
		return zero, false
	}
	cast, ok := value.(*T)
	if !ok || cast == nil {
		return zero, false
	}
	return *cast, true
}

// ForEach calls fn for every entity carrying handle's component. The
// component set may be modified by fn only through the pointer it receives.
func ForEach[T any](w *World, handle component.ComponentHandle[T], fn func(Entity, *T)) {
	if w == nil || fn == nil {
		return
	}
	store := w.store(handle.Kind().ID(), false)
	if store == nil {
		return
	}
	ids := append([]entityID(nil), store.denseEntities...)
	for _, id := range ids {
		e, ok := w.entities.entity(id)
		if !ok {
			continue
		}
		value, ok := store.Get(id).(*T)
		if !ok || value == nil {
			continue
		}
		fn(e, value)
	}
}
