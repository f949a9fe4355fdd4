package physics

import "github.com/jakecoffman/cp"

// DebugDraw hands every shape and constraint in the space to d. Engine
// coordinates are plane coordinates; use FromPlane to lift them.
func (w *World) DebugDraw(d cp.Drawer) {
	if w == nil || w.space == nil || d == nil {
		return
	}
	cp.DrawSpace(w.space, d)
}
