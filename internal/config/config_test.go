package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shuttle-router/internal/models"
	"shuttle-router/internal/problem"
	"shuttle-router/internal/routing"
)

const sampleYAML = `
notes: line test
depot: {x: 0, y: 0}
staff:
  - {x: 1, y: 0}
  - {x: 2, y: 0}
  - {x: 3, y: 0}
vehicles:
  - capacity: 2
  - capacity: 2
    start: {x: 5, y: 5}
solver:
  strategy: cheapest_insertion
  policy: first_improvement
  max_iterations: 100
  time_limit: 1m30s
  workers: 2
  scale: 10000
  truncate: true
`

func TestDecode_FullInstance(t *testing.T) {
	inst, err := Decode(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "line test", inst.Notes)
	require.Len(t, inst.Staff, 3)
	require.Len(t, inst.Vehicles, 2)
	assert.Nil(t, inst.Vehicles[0].Start)
	assert.Equal(t, 90*time.Second, time.Duration(inst.Solver.TimeLimit))

	in, err := inst.ProblemInput()
	require.NoError(t, err)
	assert.Equal(t, models.Coordinates{X: 0, Y: 0}, in.Depot)
	assert.Equal(t, models.Coordinates{X: 3, Y: 0}, in.Staff[2])
	assert.Equal(t, 2, in.Vehicles[1].Capacity)
	require.NotNil(t, in.Vehicles[1].Start)
	assert.Equal(t, models.Coordinates{X: 5, Y: 5}, *in.Vehicles[1].Start)

	opts, err := inst.Solver.RoutingOptions()
	require.NoError(t, err)
	assert.Equal(t, routing.StrategyCheapestInsertion, opts.Strategy)
	assert.Equal(t, routing.PolicyFirstImprovement, opts.Policy)
	assert.Equal(t, 100, opts.MaxIterations)
	assert.Equal(t, 90*time.Second, opts.TimeLimit)
	assert.Equal(t, 2, opts.Workers)

	popts := inst.Solver.ProblemOptions()
	assert.Equal(t, 10000.0, popts.Distance.Scale)
	assert.True(t, popts.Distance.Truncate)
}

func TestDecode_UnknownField(t *testing.T) {
	_, err := Decode(strings.NewReader("depot: {x: 0, y: 0}\nstaf: []\n"))
	require.ErrorIs(t, err, problem.ErrMalformedInput)
	assert.Contains(t, err.Error(), "staf")
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	require.ErrorIs(t, err, problem.ErrMalformedInput)
}

func TestDecode_BadDuration(t *testing.T) {
	_, err := Decode(strings.NewReader("solver:\n  time_limit: soon\n"))
	require.ErrorIs(t, err, problem.ErrMalformedInput)
}

func TestProblemInput_MissingCoordinates(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"no depot", "staff: [{x: 1, y: 1}]\nvehicles: [{capacity: 1}]\n", "depot"},
		{"depot missing y", "depot: {x: 1}\nvehicles: [{capacity: 1}]\n", "depot"},
		{"staff missing x", "depot: {x: 0, y: 0}\nstaff: [{x: 1, y: 1}, {y: 2}]\nvehicles: [{capacity: 2}]\n", "staff[1]"},
		{"start missing y", "depot: {x: 0, y: 0}\nvehicles: [{capacity: 1, start: {x: 3}}]\n", "vehicles[0].start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := Decode(strings.NewReader(tt.yaml))
			require.NoError(t, err)

			_, err = inst.ProblemInput()
			require.ErrorIs(t, err, problem.ErrMalformedInput)
			var merr *problem.MalformedInputError
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, tt.field, merr.Field)
		})
	}
}

func TestRoutingOptions_Invalid(t *testing.T) {
	_, err := Solver{Strategy: "savings"}.RoutingOptions()
	require.ErrorIs(t, err, problem.ErrMalformedInput)

	_, err = Solver{Policy: "annealing"}.RoutingOptions()
	require.ErrorIs(t, err, problem.ErrMalformedInput)

	_, err = Solver{MaxIterations: -1}.RoutingOptions()
	require.ErrorIs(t, err, problem.ErrMalformedInput)
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0600))

	inst, err := Load(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, inst.Save(&buf))
	assert.Contains(t, buf.String(), "time_limit: 1m30s")

	again, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, inst, again)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestInstance_JSON(t *testing.T) {
	body := `{"depot":{"x":0,"y":0},"staff":[{"x":1,"y":0}],"vehicles":[{"capacity":1}],"solver":{"time_limit":"2s"}}`

	var inst Instance
	require.NoError(t, json.Unmarshal([]byte(body), &inst))
	assert.Equal(t, 2*time.Second, time.Duration(inst.Solver.TimeLimit))

	in, err := inst.ProblemInput()
	require.NoError(t, err)
	assert.Len(t, in.Staff, 1)
}

func TestSolverWithDefaults(t *testing.T) {
	env := Env{TimeLimit: 5 * time.Second, Workers: 3}

	s := Solver{}.WithDefaults(env)
	assert.Equal(t, Duration(5*time.Second), s.TimeLimit)
	assert.Equal(t, 3, s.Workers)

	s = Solver{TimeLimit: Duration(time.Second), Workers: 1}.WithDefaults(env)
	assert.Equal(t, Duration(time.Second), s.TimeLimit)
	assert.Equal(t, 1, s.Workers)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("ROUTER_ADDR", ":9999")
	t.Setenv("ROUTER_TIME_LIMIT", "10s")
	t.Setenv("ROUTER_WORKERS", "not-a-number")
	t.Setenv("ROUTER_SOLVE_RPS", "0.5")

	env := FromEnv()
	assert.Equal(t, ":9999", env.Addr)
	assert.Equal(t, 10*time.Second, env.TimeLimit)
	assert.Equal(t, 0, env.Workers)
	assert.Equal(t, 0.5, env.SolveRPS)
	assert.Equal(t, 4, env.SolveBurst)
}

func TestLoad_SampleInstance(t *testing.T) {
	inst, err := Load(filepath.Join("..", "..", "configs", "instance.yaml"))
	require.NoError(t, err)

	in, err := inst.ProblemInput()
	require.NoError(t, err)
	assert.Len(t, in.Staff, 5)
	require.Len(t, in.Vehicles, 2)
	assert.Nil(t, in.Vehicles[0].Start)
	require.NotNil(t, in.Vehicles[1].Start)

	_, err = inst.Solver.RoutingOptions()
	require.NoError(t, err)
}
