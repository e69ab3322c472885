package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shuttle-router/internal/models"
	"shuttle-router/internal/problem"
	"shuttle-router/internal/testutil"
)

func TestPrintData(t *testing.T) {
	in := testutil.LineInput(3)
	in.Vehicles = append(in.Vehicles, problem.VehicleInput{Capacity: 2, Start: &models.Coordinates{X: 0, Y: 4}})
	p := testutil.NewProblem(t, in)

	var buf bytes.Buffer
	require.NoError(t, PrintData(&buf, p))
	out := buf.String()

	assert.Contains(t, out, "Distance Matrix:\n[0, 1, 2, 3, 4]\n")
	assert.Contains(t, out, "Demands:\n[0, 1, 1, 1, 0]\n")
	assert.Contains(t, out, "Vehicle Capacities:\n[3, 2]\n")
	assert.Contains(t, out, "Number of Vehicles:\n2\n")
	assert.Contains(t, out, "Depot Index:\n0\n")
	assert.Contains(t, out, "Vehicle Start Indices:\n[0, 4]\n")
	assert.Contains(t, out, "Vehicle End Indices:\n[0, 0]\n")
	assert.Contains(t, out, "4 vehicle_start (0, 4)\n")
}

func TestPrintSolution(t *testing.T) {
	result := testutil.SampleResult("run-1")
	result.Warnings = []string{"search stopped early"}

	var buf bytes.Buffer
	require.NoError(t, PrintSolution(&buf, result))
	out := buf.String()

	assert.Contains(t, out, "Total staff: 3\n")
	assert.Contains(t, out, "Total vehicle capacity: 4\n")
	assert.Contains(t, out, "------ Vehicle 1 (capacity: 2) ------\n")
	assert.Contains(t, out, " #2 : 2 -> 3 (distance: 1.0000, load: 2)\n")
	assert.Contains(t, out, "Total Load: 2\n")
	// the fleet total is summed from the routes
	assert.Contains(t, out, "Total distance of all routes: 8.0000\n")
	assert.Contains(t, out, "stop=local_optimum")
	assert.Contains(t, out, "Warning: search stopped early\n")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, testutil.SampleResult("run-json")))

	var decoded models.RoutingResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-json", decoded.RunID)
	assert.Equal(t, []int{0, 1, 2, 2}, decoded.Routes[1].LoadSequence())
	assert.Contains(t, buf.String(), `"elapsed_ms": 3`)
}
