package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatedRouteLoadSequence(t *testing.T) {
	r := CalculatedRoute{
		Stops: []RouteStop{
			{Order: 0, Kind: KindVehicleStart, Load: 0},
			{Order: 1, Kind: KindStaff, Load: 1},
			{Order: 2, Kind: KindStaff, Load: 2},
			{Order: 3, Kind: KindDepot, Load: 2},
		},
	}

	assert.Equal(t, []int{0, 1, 2, 2}, r.LoadSequence())
}

func TestCalculatedRouteLoadSequenceEmpty(t *testing.T) {
	r := CalculatedRoute{}
	assert.Empty(t, r.LoadSequence())
}

func TestRouteStopJSONFieldNames(t *testing.T) {
	stop := RouteStop{
		Order:              2,
		LocationIndex:      5,
		Kind:               KindStaff,
		Coords:             Coordinates{X: 1.5, Y: -2},
		DistanceFromPrev:   3,
		CumulativeDistance: 7,
		Load:               2,
	}

	data, err := json.Marshal(stop)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "staff", raw["kind"])
	assert.Equal(t, 5.0, raw["location_index"])
	assert.Equal(t, 7.0, raw["cumulative_distance"])
	assert.Equal(t, map[string]interface{}{"x": 1.5, "y": -2.0}, raw["coords"])
}
