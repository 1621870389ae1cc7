// Command simulate replays a wave event offline on a fake clock and prints
// the engine's outputs as JSON lines, one per time step. Because every
// output is a pure function of (time, parameters), replaying the same event
// file always produces identical output, which makes it useful for tuning
// event definitions and rehearsing choreography without Kafka or clients.
//
// Usage:
//
//	go run ./cmd/simulate \
//	  -event events/lisbon.yaml \
//	  -step 30s \
//	  -positions "38.7169,-9.1399;38.7223,-9.1293"
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wavecrest/wave-engine/internal/clip"
	"github.com/wavecrest/wave-engine/internal/config"
	"github.com/wavecrest/wave-engine/internal/geo"
	"github.com/wavecrest/wave-engine/internal/sim"
)

type positionReport struct {
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	State        string   `json:"state"`
	SecondsToHit *float64 `json:"seconds_to_hit,omitempty"`
}

type stepReport struct {
	Time           time.Time        `json:"time"`
	Progression    float64          `json:"progression"`
	FrontLongitude float64          `json:"front_longitude"`
	SweptPieces    int              `json:"swept_pieces"`
	Positions      []positionReport `json:"positions,omitempty"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	eventFile := flag.String("event", "", "path to the event definition YAML")
	step := flag.Duration("step", time.Minute, "simulated time step")
	positionsArg := flag.String("positions", "", "tracked positions as \"lat,lon;lat,lon\"")
	flag.Parse()

	if *eventFile == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -event")
	}

	def, err := config.LoadEventDefinition(*eventFile)
	if err != nil {
		return err
	}
	positions, err := parsePositions(*positionsArg)
	if err != nil {
		return err
	}

	params := def.Parameters()

	// Seek starts one warming window before the event so warming transitions
	// are visible in the output.
	seekStart := params.Start.Add(-params.WarmingDuration - params.WarnBeforeHit - *step)
	clock := clockwork.NewFakeClockAt(seekStart)

	simulation, err := sim.New(params, def.Areas(), def.BoundingBox(), clock)
	if err != nil {
		return err
	}
	cutter := clip.New(params.Direction.SweptSide())
	areas := def.Areas()

	enc := json.NewEncoder(os.Stdout)
	for {
		report := stepReport{
			Time:           clock.Now(),
			Progression:    simulation.Progression(),
			FrontLongitude: simulation.FrontLongitude(),
			SweptPieces:    len(cutter.TraversedPolygons(areas, simulation.FrontLine(), clip.ModeAdd)),
		}
		for _, p := range positions {
			pr := positionReport{Lat: p.Lat, Lon: p.Lon, State: simulation.StateAt(p).String()}
			if before := simulation.TimeBeforeHit(p); before != sim.Never {
				seconds := before.Seconds()
				pr.SecondsToHit = &seconds
			}
			report.Positions = append(report.Positions, pr)
		}
		if err := enc.Encode(report); err != nil {
			return err
		}

		if report.Progression >= 1 {
			return nil
		}
		clock.Advance(*step)
	}
}

func parsePositions(arg string) ([]geo.Position, error) {
	if arg == "" {
		return nil, nil
	}
	var positions []geo.Position
	for _, pair := range strings.Split(arg, ";") {
		parts := strings.Split(strings.TrimSpace(pair), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid position %q, want \"lat,lon\"", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", pair, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", pair, err)
		}
		positions = append(positions, geo.Position{Lat: lat, Lon: lon})
	}
	return positions, nil
}
