package system

import (
	"github.com/milk9111/bulletball/ecs"
	"github.com/milk9111/bulletball/ecs/component"
)

// ReasonFellOut is the despawn reason used by CullSystem.
const ReasonFellOut = "fell_out"

// Despawner removes an entity from the ECS world and everything bound to it.
type Despawner interface {
	Despawn(w *ecs.World, e ecs.Entity, reason string) bool
}

// CullSystem despawns bodies that have fallen past their Lifetime height.
type CullSystem struct {
	despawner Despawner
}

func NewCullSystem(d Despawner) *CullSystem {
	return &CullSystem{despawner: d}
}

func (s *CullSystem) Update(w *ecs.World) {
	if s == nil || s.despawner == nil || w == nil {
		return
	}

	var expired []ecs.Entity
	ecs.ForEach(w, component.LifetimeComponent, func(e ecs.Entity, lifetime *component.Lifetime) {
		rb, ok := ecs.Get(w, e, component.RigidBodyComponent)
		if !ok || rb.Body == nil {
			return
		}
		if rb.Body.Position().Y() > lifetime.MaxHeight {
			expired = append(expired, e)
		}
	})

	for _, e := range expired {
		s.despawner.Despawn(w, e, ReasonFellOut)
	}
}
