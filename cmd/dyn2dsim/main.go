// Command dyn2dsim is a minimal headless driver that builds scenario
// S1 (a box falling onto a static ground) and prints how long it takes
// to settle. It exists as a smoke example, not a spec requirement.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/undefinedopcode/dyn2d"
)

func main() {
	maxSeconds := flag.Float64("max-seconds", 10.0, "give up after this much simulated time")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))

	world := physics.NewWorld()
	world.SetGravity(physics.Vec2{0, -9.8})

	ground := physics.NewBody()
	ground.SetMassType(physics.MassStatic)
	ground.SetPosition(physics.Vec2{0, 0})
	ground.AddFixture(physics.NewFixture(physics.NewBoxPolygon(25, 0.5)))
	if err := world.AddBody(ground); err != nil {
		fmt.Fprintln(os.Stderr, "add ground:", err)
		os.Exit(1)
	}

	box := physics.NewBody()
	box.SetPosition(physics.Vec2{0, 5})
	box.AddFixture(physics.NewFixture(physics.NewBoxPolygon(0.5, 0.5)))
	if err := world.AddBody(box); err != nil {
		fmt.Fprintln(os.Stderr, "add box:", err)
		os.Exit(1)
	}

	dt := world.Settings().StepFrequency
	elapsed := 0.0
	for elapsed < *maxSeconds {
		world.Step(1)
		elapsed += dt
		if box.Sleeping {
			fmt.Printf("settled after %.3fs at y=%.4f\n", elapsed, box.Position()[1])
			return
		}
	}
	fmt.Printf("did not settle within %.3fs, final y=%.4f\n", *maxSeconds, box.Position()[1])
}
