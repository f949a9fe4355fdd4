package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/bulletball/scene"
)

// Input holds the polled input of one frame.
type Input struct {
	// Keys are the scene keys pressed this frame, in press order.
	Keys []scene.Key
	// DragX/DragY are the cursor movement in pixels while the left button is held.
	DragX, DragY float64
	// Wheel is the vertical scroll this frame.
	Wheel float64

	DebugToggled bool
	HUDToggled   bool
	QuitPressed  bool

	pressed  []ebiten.Key
	dragging bool
	lastX    int
	lastY    int
}

func NewInput() *Input {
	return &Input{}
}

// Update polls the keyboard and mouse.
func (i *Input) Update() {
	i.pressed = inpututil.AppendJustPressedKeys(i.pressed[:0])
	i.Keys = i.Keys[:0]
	i.DebugToggled, i.HUDToggled, i.QuitPressed = false, false, false
	for _, k := range i.pressed {
		switch k {
		case ebiten.KeyF1:
			i.HUDToggled = true
		case ebiten.KeyF3:
			i.DebugToggled = true
		case ebiten.KeyF12:
			i.QuitPressed = true
		default:
			i.Keys = append(i.Keys, sceneKey(k))
		}
	}

	x, y := ebiten.CursorPosition()
	i.DragX, i.DragY = 0, 0
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if i.dragging {
			i.DragX = float64(x - i.lastX)
			i.DragY = float64(y - i.lastY)
		}
		i.dragging = true
	} else {
		i.dragging = false
	}
	i.lastX, i.lastY = x, y

	_, i.Wheel = ebiten.Wheel()
}

// sceneKey maps an ebiten key to the key the scene reacts to.
func sceneKey(k ebiten.Key) scene.Key {
	switch k {
	case ebiten.KeySpace:
		return scene.KeySpace
	case ebiten.KeyC:
		return scene.KeyC
	case ebiten.KeyDelete:
		return scene.KeyDelete
	case ebiten.KeyBackspace:
		return scene.KeyBackspace
	default:
		return scene.KeyOther
	}
}
