package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wavecrest/wave-engine/internal/geo"
	"github.com/wavecrest/wave-engine/internal/sim"
)

// EventDefinition is the operator-authored description of one wave event:
// its area geometry and the wave parameters sweeping it.
type EventDefinition struct {
	ID       string     `yaml:"id"`
	Name     string     `yaml:"name"`
	Bounds   Bounds     `yaml:"bounds"`
	Polygons [][]Vertex `yaml:"polygons"`
	Wave     WaveConfig `yaml:"wave"`
}

// Vertex is one polygon corner in the event file.
type Vertex struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Bounds is the event's bounding box in the event file.
type Bounds struct {
	SouthWest Vertex `yaml:"south_west"`
	NorthEast Vertex `yaml:"north_east"`
}

// WaveConfig holds the wave parameters in the event file.
type WaveConfig struct {
	SpeedMPS      float64   `yaml:"speed_mps"`
	Direction     string    `yaml:"direction"`
	Start         time.Time `yaml:"start"`
	Warming       Duration  `yaml:"warming"`
	WarnBeforeHit Duration  `yaml:"warn_before_hit"`
}

// Duration parses Go duration strings ("90s", "2m") from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// LoadEventDefinition reads and validates an event definition file.
func LoadEventDefinition(path string) (*EventDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event file: %w", err)
	}

	var def EventDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse event file: %w", err)
	}
	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("event file %s: %w", path, err)
	}
	return &def, nil
}

func (e *EventDefinition) validate() error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(e.Polygons) == 0 {
		return fmt.Errorf("at least one area polygon is required")
	}
	for i, poly := range e.Polygons {
		if len(poly) < 3 {
			return fmt.Errorf("polygon %d has %d vertices, need at least 3", i, len(poly))
		}
	}
	if e.Wave.SpeedMPS <= 0 {
		return fmt.Errorf("wave speed must be positive")
	}
	if e.Wave.Start.IsZero() {
		return fmt.Errorf("wave start time is required")
	}
	if _, err := sim.ParseDirection(e.Wave.Direction); err != nil {
		return err
	}
	if e.Bounds.NorthEast.Lon == e.Bounds.SouthWest.Lon {
		return fmt.Errorf("bounds have no east-west extent")
	}
	return nil
}

// Areas converts the file polygons into engine geometry.
func (e *EventDefinition) Areas() []geo.Polygon {
	areas := make([]geo.Polygon, len(e.Polygons))
	for i, poly := range e.Polygons {
		area := make(geo.Polygon, len(poly))
		for j, v := range poly {
			area[j] = geo.Position{Lat: v.Lat, Lon: v.Lon}
		}
		areas[i] = area
	}
	return areas
}

// BoundingBox converts the file bounds into engine geometry.
func (e *EventDefinition) BoundingBox() geo.BoundingBox {
	return geo.BoundingBox{
		SouthWest: geo.Position{Lat: e.Bounds.SouthWest.Lat, Lon: e.Bounds.SouthWest.Lon},
		NorthEast: geo.Position{Lat: e.Bounds.NorthEast.Lat, Lon: e.Bounds.NorthEast.Lon},
	}
}

// Parameters converts the file wave settings into simulation parameters.
// validate has already checked the direction string.
func (e *EventDefinition) Parameters() sim.Parameters {
	direction, _ := sim.ParseDirection(e.Wave.Direction)
	return sim.Parameters{
		Speed:           e.Wave.SpeedMPS,
		Direction:       direction,
		Start:           e.Wave.Start,
		WarmingDuration: time.Duration(e.Wave.Warming),
		WarnBeforeHit:   time.Duration(e.Wave.WarnBeforeHit),
	}
}
