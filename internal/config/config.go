// Package config loads routing instances and solver settings from YAML or JSON
// and turns them into problem inputs and solver options.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"shuttle-router/internal/distance"
	"shuttle-router/internal/models"
	"shuttle-router/internal/problem"
	"shuttle-router/internal/routing"
)

// Point is a coordinate pair whose components may be absent in the source document
type Point struct {
	X *float64 `yaml:"x" json:"x"`
	Y *float64 `yaml:"y" json:"y"`
}

// NewPoint returns a fully populated Point
func NewPoint(x, y float64) Point {
	return Point{X: &x, Y: &y}
}

func (p *Point) coordinates(field string) (models.Coordinates, error) {
	if p == nil || p.X == nil || p.Y == nil {
		return models.Coordinates{}, &problem.MalformedInputError{Field: field, Reason: "missing coordinates"}
	}
	return models.Coordinates{X: *p.X, Y: *p.Y}, nil
}

// Vehicle is one fleet entry. A missing start means the vehicle leaves from the depot.
type Vehicle struct {
	Capacity int    `yaml:"capacity" json:"capacity"`
	Start    *Point `yaml:"start,omitempty" json:"start,omitempty"`
}

// Duration accepts Go duration strings such as "30s" or "1m30s"
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.parse(s)
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.parse(s)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Solver holds the search settings of an instance
type Solver struct {
	Strategy        string   `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	Policy          string   `yaml:"policy,omitempty" json:"policy,omitempty"`
	MaxIterations   int      `yaml:"max_iterations,omitempty" json:"max_iterations,omitempty"`
	TimeLimit       Duration `yaml:"time_limit,omitempty" json:"time_limit,omitempty"`
	Workers         int      `yaml:"workers,omitempty" json:"workers,omitempty"`
	SkipLocalSearch bool     `yaml:"skip_local_search,omitempty" json:"skip_local_search,omitempty"`

	// Scale and Truncate reproduce integer distance costs, e.g. scale 10000 with truncation.
	Scale    float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
	Truncate bool    `yaml:"truncate,omitempty" json:"truncate,omitempty"`
}

// Instance is a complete routing request: depot, staff, fleet and solver settings
type Instance struct {
	Notes    string    `yaml:"notes,omitempty" json:"notes,omitempty"`
	Depot    *Point    `yaml:"depot" json:"depot"`
	Staff    []Point   `yaml:"staff" json:"staff"`
	Vehicles []Vehicle `yaml:"vehicles" json:"vehicles"`
	Solver   Solver    `yaml:"solver,omitempty" json:"solver,omitempty"`
}

// Load reads an instance from a YAML file
func Load(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read instance file: %w", err)
	}

	inst, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Printf("[CONFIG] Loaded instance %s: staff=%d vehicles=%d", path, len(inst.Staff), len(inst.Vehicles))
	return inst, nil
}

// Decode parses a YAML instance. Unknown keys are rejected.
func Decode(r io.Reader) (*Instance, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var inst Instance
	if err := dec.Decode(&inst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &problem.MalformedInputError{Field: "instance", Reason: "empty document"}
		}
		return nil, &problem.MalformedInputError{Field: "instance", Reason: "invalid YAML", Err: err}
	}
	return &inst, nil
}

// Save writes the instance as YAML
func (i *Instance) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(i); err != nil {
		return fmt.Errorf("failed to encode instance: %w", err)
	}
	return enc.Close()
}

// ProblemInput converts the instance into the problem model input.
// Missing coordinates are reported as malformed input.
func (i *Instance) ProblemInput() (problem.Input, error) {
	var in problem.Input

	depot, err := i.Depot.coordinates("depot")
	if err != nil {
		return in, err
	}
	in.Depot = depot

	in.Staff = make([]models.Coordinates, len(i.Staff))
	for idx := range i.Staff {
		c, err := i.Staff[idx].coordinates(fmt.Sprintf("staff[%d]", idx))
		if err != nil {
			return in, err
		}
		in.Staff[idx] = c
	}

	in.Vehicles = make([]problem.VehicleInput, len(i.Vehicles))
	for idx, v := range i.Vehicles {
		in.Vehicles[idx].Capacity = v.Capacity
		if v.Start != nil {
			c, err := v.Start.coordinates(fmt.Sprintf("vehicles[%d].start", idx))
			if err != nil {
				return in, err
			}
			in.Vehicles[idx].Start = &c
		}
	}

	return in, nil
}

// ProblemOptions returns the distance settings for the problem model
func (s Solver) ProblemOptions() problem.Options {
	return problem.Options{Distance: distance.Options{
		Workers:  s.Workers,
		Scale:    s.Scale,
		Truncate: s.Truncate,
	}}
}

// RoutingOptions validates the solver settings and returns router options
func (s Solver) RoutingOptions() (routing.Options, error) {
	strategy, err := routing.ParseStrategy(s.Strategy)
	if err != nil {
		return routing.Options{}, &problem.MalformedInputError{Field: "solver.strategy", Reason: err.Error()}
	}
	policy, err := routing.ParsePolicy(s.Policy)
	if err != nil {
		return routing.Options{}, &problem.MalformedInputError{Field: "solver.policy", Reason: err.Error()}
	}
	if s.MaxIterations < 0 {
		return routing.Options{}, &problem.MalformedInputError{Field: "solver.max_iterations", Reason: "must not be negative"}
	}
	if s.Scale < 0 {
		return routing.Options{}, &problem.MalformedInputError{Field: "solver.scale", Reason: "must not be negative"}
	}

	return routing.Options{
		Strategy:        strategy,
		Policy:          policy,
		MaxIterations:   s.MaxIterations,
		TimeLimit:       time.Duration(s.TimeLimit),
		Workers:         s.Workers,
		SkipLocalSearch: s.SkipLocalSearch,
	}, nil
}

// WithDefaults fills unset solver settings from the environment defaults
func (s Solver) WithDefaults(env Env) Solver {
	if s.TimeLimit == 0 {
		s.TimeLimit = Duration(env.TimeLimit)
	}
	if s.Workers == 0 {
		s.Workers = env.Workers
	}
	return s
}
