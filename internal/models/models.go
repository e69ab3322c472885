package models

import "time"

// Coordinates represents a point on the plane
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LocationKind tells the role a location plays in a route
type LocationKind string

const (
	KindDepot        LocationKind = "depot"
	KindStaff        LocationKind = "staff"
	KindVehicleStart LocationKind = "vehicle_start"
)

// RouteStop represents a single stop in a calculated route
type RouteStop struct {
	Order              int          `json:"order"`
	LocationIndex      int          `json:"location_index"`
	Kind               LocationKind `json:"kind"`
	Coords             Coordinates  `json:"coords"`
	DistanceFromPrev   float64      `json:"distance_from_prev"`
	CumulativeDistance float64      `json:"cumulative_distance"`
	Load               int          `json:"load"`
}

// CalculatedRoute represents a single vehicle's route, start to depot
type CalculatedRoute struct {
	VehicleID     int         `json:"vehicle_id"`
	Capacity      int         `json:"capacity"`
	Stops         []RouteStop `json:"stops"`
	TotalDistance float64     `json:"total_distance"`
	Load          int         `json:"load"`
}

// LoadSequence returns the cumulative load at every stop of the route
func (r *CalculatedRoute) LoadSequence() []int {
	loads := make([]int, len(r.Stops))
	for i, s := range r.Stops {
		loads[i] = s.Load
	}
	return loads
}

// RoutingSummary contains aggregate stats for a routing calculation
type RoutingSummary struct {
	TotalStaff      int     `json:"total_staff"`
	TotalCapacity   int     `json:"total_capacity"`
	TotalVehicles   int     `json:"total_vehicles"`
	VehiclesUsed    int     `json:"vehicles_used"`
	TotalDistance   float64 `json:"total_distance"`
	InitialDistance float64 `json:"initial_distance"`
	Strategy        string  `json:"strategy"`
	Iterations      int     `json:"iterations"` // local search scan passes, including the final pass that found no improving move
	MovesApplied    int     `json:"moves_applied"`
	StopReason      string  `json:"stop_reason"`
	ElapsedMillis   int64   `json:"elapsed_ms"`
}

// RoutingResult contains the full result of a route calculation
type RoutingResult struct {
	RunID     string            `json:"run_id"`
	CreatedAt time.Time         `json:"created_at"`
	Routes    []CalculatedRoute `json:"routes"`
	Summary   RoutingSummary    `json:"summary"`
	Warnings  []string          `json:"warnings"`
}

// RunSummary is the list view of a stored routing run
type RunSummary struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Notes         string    `json:"notes"`
	Strategy      string    `json:"strategy"`
	TotalStaff    int       `json:"total_staff"`
	VehiclesUsed  int       `json:"vehicles_used"`
	TotalDistance float64   `json:"total_distance"`
	StopReason    string    `json:"stop_reason"`
}
