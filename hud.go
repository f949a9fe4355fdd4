package main

import (
	"fmt"
	"image/color"

	"golang.org/x/image/font/basicfont"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/milk9111/bulletball/scene"
)

const hudHelp = "Space: fire  C: cloth  Del: remove cloth\nDrag: orbit  Wheel: zoom  F1: HUD  F3: debug"

// HUD is a corner overlay with scene counters and buttons for the scene
// keys.
type HUD struct {
	ui     *ebitenui.UI
	stats  *widget.Text
	status *widget.Text

	// pending collects button presses until the next game update.
	pending []scene.Key
}

func NewHUD() *HUD {
	h := &HUD{}

	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 160})
	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255})
	btnPressedImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 255})

	goFace := ebtext.NewGoXFace(basicfont.Face7x13)
	var face ebtext.Face = goFace

	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	btnTextColor := &widget.ButtonTextColor{Idle: white}
	rowData := widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionStart})

	h.stats = widget.NewText(
		widget.TextOpts.Text("", &face, white),
		widget.TextOpts.WidgetOpts(rowData),
	)
	h.status = widget.NewText(
		widget.TextOpts.Text("", &face, color.NRGBA{R: 0xff, G: 0xa6, B: 0x32, A: 0xff}),
		widget.TextOpts.WidgetOpts(rowData),
	)
	help := widget.NewText(
		widget.TextOpts.Text(hudHelp, &face, white),
		widget.TextOpts.WidgetOpts(rowData),
	)

	button := func(label string, key scene.Key) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Pressed: btnPressedImg}),
			widget.ButtonOpts.Text(label, &face, btnTextColor),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				h.pending = append(h.pending, key)
			}),
		)
	}

	buttons := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
			widget.RowLayoutOpts.Spacing(6),
		)),
		widget.ContainerOpts.WidgetOpts(rowData),
	)
	buttons.AddChild(button("Fire", scene.KeySpace))
	buttons.AddChild(button("Cloth", scene.KeyC))
	buttons.AddChild(button("Remove", scene.KeyDelete))

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(6),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 10, Bottom: 10, Left: 12, Right: 12}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{HorizontalPosition: widget.AnchorLayoutPositionEnd, VerticalPosition: widget.AnchorLayoutPositionStart}),
		),
	)
	panel.AddChild(h.stats)
	panel.AddChild(buttons)
	panel.AddChild(help)
	panel.AddChild(h.status)

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	h.ui = &ebitenui.UI{Container: root}
	return h
}

func (h *HUD) SetStats(bodies, patches int, ticks uint64, fps float64) {
	h.stats.Label = fmt.Sprintf("Bodies: %d  Patches: %d\nTicks: %d  FPS: %.1f", bodies, patches, ticks, fps)
}

// SetStatus shows a one-line message such as a reload result.
func (h *HUD) SetStatus(msg string) {
	h.status.Label = msg
}

// TakeKeys returns and clears the keys pressed through HUD buttons.
func (h *HUD) TakeKeys() []scene.Key {
	keys := h.pending
	h.pending = nil
	return keys
}

func (h *HUD) Update() {
	h.ui.Update()
}

func (h *HUD) Draw(screen *ebiten.Image) {
	h.ui.Draw(screen)
}
