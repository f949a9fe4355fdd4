package main

import (
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/bulletball/ecs/render"
	"github.com/milk9111/bulletball/prefabs"
	"github.com/milk9111/bulletball/scene"
)

// Options are the command line switches of the demo.
type Options struct {
	SpecPath string
	Debug    bool
	HUD      bool
	Watch    bool
}

type Game struct {
	frames int

	scene    *scene.Scene
	renderer *render.RenderSystem
	input    *Input
	hud      *HUD
	watcher  *prefabs.Watcher

	specPath string
	debug    bool
	showHUD  bool
}

func NewGame(spec *prefabs.SceneSpec, opts Options) (*Game, error) {
	sc := scene.New(spec)
	if err := sc.Setup(); err != nil {
		return nil, fmt.Errorf("game: setup scene: %w", err)
	}

	g := &Game{
		scene:    sc,
		renderer: render.NewRenderSystem(render.PaletteFromSpec(spec.Palette)),
		input:    NewInput(),
		hud:      NewHUD(),
		specPath: opts.SpecPath,
		debug:    opts.Debug,
		showHUD:  opts.HUD,
	}

	if opts.Watch {
		path := opts.SpecPath
		if path == "" {
			path = prefabs.DiskPath(prefabs.SceneFile)
		}
		w, err := prefabs.NewWatcher(path)
		if err != nil {
			log.Printf("Watcher: not watching %s: %v", path, err)
		} else {
			g.watcher = w
			g.specPath = path
		}
	}

	return g, nil
}

func (g *Game) Update() error {
	g.frames++

	g.reloadSpec()

	g.input.Update()
	if g.input.QuitPressed {
		return ebiten.Termination
	}
	if g.input.DebugToggled {
		g.debug = !g.debug
	}
	if g.input.HUDToggled {
		g.showHUD = !g.showHUD
	}

	if cam := g.scene.Camera(); cam.MouseInputEnabled() {
		spec := g.scene.Spec().Camera
		if g.input.DragX != 0 || g.input.DragY != 0 {
			cam.Orbit(-g.input.DragX*spec.OrbitSpeed, -g.input.DragY*spec.OrbitSpeed)
		}
		if g.input.Wheel != 0 {
			cam.Dolly(1 - g.input.Wheel*spec.ZoomSpeed)
		}
	}

	keys := g.input.Keys
	if g.showHUD {
		g.hud.Update()
		keys = append(keys, g.hud.TakeKeys()...)
	}
	for _, k := range keys {
		if err := g.scene.KeyPressed(k); err != nil {
			return err
		}
	}

	if err := g.scene.Update(); err != nil {
		return err
	}
	for _, ev := range g.scene.DrainEvents() {
		if g.debug {
			log.Printf("Scene: %v %+v", ev.Type, ev.Data)
		}
	}

	if g.showHUD {
		g.hud.SetStats(len(g.scene.Bodies()), len(g.scene.Patches()), g.scene.Physics().Ticks(), ebiten.ActualFPS())
	}
	return nil
}

// reloadSpec applies spec files written since the last frame. A bad spec is
// logged and the current one kept.
func (g *Game) reloadSpec() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			spec, err := prefabs.LoadSceneSpec(path)
			if err == nil {
				err = g.scene.ApplySpec(spec)
			}
			if err != nil {
				log.Printf("Watcher: reload %s: %v", path, err)
				g.hud.SetStatus("reload failed, see log")
				continue
			}
			g.renderer.Palette = render.PaletteFromSpec(spec.Palette)
			g.hud.SetStatus("reloaded " + path)
			log.Printf("Watcher: reloaded %s", path)
		case err, ok := <-g.watcher.Errors:
			if ok {
				log.Printf("Watcher: %v", err)
			}
		default:
			return
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(g.scene.World(), screen, g.scene.Camera(), g.scene.Light())

	if g.debug {
		render.DrawPhysicsDebug(g.scene.Physics(), screen)
		render.DrawWorldStats(g.scene.Physics(), screen)
	}
	if g.showHUD {
		g.hud.Draw(screen)
	}
}

func (g *Game) Close() error {
	if g.watcher == nil {
		return nil
	}
	return g.watcher.Close()
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	w, h := g.scene.Camera().Viewport()
	return float64(w), float64(h)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
