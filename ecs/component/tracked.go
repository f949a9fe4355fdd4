package component

// Tracked puts an entity in the scene's active collections. Seq is the spawn
// order; collections are listed by ascending Seq.
type Tracked struct {
	Seq uint64
}

var TrackedComponent = NewComponent[Tracked]()
