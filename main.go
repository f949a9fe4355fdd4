package main

import (
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/joho/godotenv"
	"github.com/milk9111/bulletball/prefabs"
)

func main() {
	// A missing .env is fine; the flags and defaults cover everything.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment variables from .env")
	}

	envDebug, _ := strconv.ParseBool(os.Getenv("BULLETBALL_DEBUG"))

	specPath := flag.String("scene", os.Getenv("BULLETBALL_SCENE"), "scene spec file (defaults to prefabs/scene.yaml)")
	debug := flag.Bool("debug", envDebug, "draw the physics debug overlay")
	hud := flag.Bool("hud", true, "show the HUD overlay")
	watch := flag.Bool("watch", true, "reload the scene spec when it changes on disk")
	flag.Parse()

	spec, err := prefabs.LoadSceneSpec(*specPath)
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(spec.Window.Width, spec.Window.Height)
	ebiten.SetWindowTitle(spec.Window.Title)
	ebiten.SetTPS(spec.Window.TPS)

	game, err := NewGame(spec, Options{
		SpecPath: *specPath,
		Debug:    *debug,
		HUD:      *hud,
		Watch:    *watch,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
