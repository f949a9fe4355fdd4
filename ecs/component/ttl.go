package component

// Lifetime despawns a body once it falls past MaxHeight. The y axis points
// down, so falling means y growing.
type Lifetime struct {
	MaxHeight float64
}

var LifetimeComponent = NewComponent[Lifetime]()
