// Command bbsim runs the bulletball scene without a window and logs the
// population every few ticks.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/milk9111/bulletball/ecs"
	"github.com/milk9111/bulletball/prefabs"
	"github.com/milk9111/bulletball/scene"
)

func main() {
	specPath := flag.String("scene", "", "scene spec file (defaults to prefabs/scene.yaml)")
	ticks := flag.Int("ticks", 600, "ticks to simulate")
	fireEvery := flag.Int("fire", 30, "fire a projectile every N ticks (0 disables)")
	cloth := flag.Bool("cloth", true, "drop a cloth patch at tick 0")
	report := flag.Int("report", 60, "log stats every N ticks")
	dump := flag.Bool("dump", false, "print the resolved scene spec as YAML and exit")
	flag.Parse()

	spec, err := prefabs.LoadSceneSpec(*specPath)
	if err != nil {
		log.Fatal(err)
	}
	if *dump {
		data, err := spec.Encode()
		if err != nil {
			log.Fatal(err)
		}
		os.Stdout.Write(data)
		return
	}

	sc := scene.New(spec)
	if err := sc.Setup(); err != nil {
		log.Fatal(err)
	}
	if *cloth {
		if err := sc.KeyPressed(scene.KeyC); err != nil {
			log.Fatal(err)
		}
	}

	var fired, culled int
	for tick := 1; tick <= *ticks; tick++ {
		if *fireEvery > 0 && tick%*fireEvery == 0 {
			if err := sc.KeyPressed(scene.KeySpace); err != nil {
				log.Fatal(err)
			}
			fired++
		}
		if err := sc.Update(); err != nil {
			log.Fatal(err)
		}
		for _, ev := range sc.DrainEvents() {
			if ev.Type == ecs.EventDespawned {
				culled++
			}
		}
		if *report > 0 && tick%*report == 0 {
			log.Printf("Sim: tick=%d bodies=%d patches=%d fired=%d despawned=%d",
				tick, len(sc.Bodies()), len(sc.Patches()), fired, culled)
		}
	}
}
