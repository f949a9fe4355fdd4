package component

type GroundTag struct{}

var GroundTagComponent = NewComponent[GroundTag]()

// AnchorTag marks the kinematic sphere created at setup.
type AnchorTag struct{}

var AnchorTagComponent = NewComponent[AnchorTag]()

type ProjectileTag struct{}

var ProjectileTagComponent = NewComponent[ProjectileTag]()
