package routing

import (
	"fmt"

	"shuttle-router/internal/problem"
)

// MoveKind tags the neighbourhood a move belongs to. The order is the final tie-break.
type MoveKind int

const (
	KindTwoOpt MoveKind = iota
	KindRelocate
	KindSwap
)

func (k MoveKind) String() string {
	switch k {
	case KindTwoOpt:
		return "two_opt"
	case KindRelocate:
		return "relocate"
	case KindSwap:
		return "swap"
	}
	return fmt.Sprintf("move_kind(%d)", int(k))
}

// MoveKey orders moves with equal delta: vehicle, position, other vehicle, other position, kind
type MoveKey struct {
	Vehicle  int
	Pos      int
	Other    int
	OtherPos int
	Kind     MoveKind
}

// Less reports whether k sorts before o
func (k MoveKey) Less(o MoveKey) bool {
	if k.Vehicle != o.Vehicle {
		return k.Vehicle < o.Vehicle
	}
	if k.Pos != o.Pos {
		return k.Pos < o.Pos
	}
	if k.Other != o.Other {
		return k.Other < o.Other
	}
	if k.OtherPos != o.OtherPos {
		return k.OtherPos < o.OtherPos
	}
	return k.Kind < o.Kind
}

// Move is a candidate change to a solution. Delta is the change in total distance
// computed from the affected arcs only; Apply commits it in place.
type Move interface {
	Kind() MoveKind
	Key() MoveKey
	Delta(p *problem.Problem, s *Solution) float64
	Apply(s *Solution)
}

// TwoOpt reverses Stops[I..J] of one route. 1 <= I < J <= len(Stops)-2, so the
// start and the depot stay in place.
type TwoOpt struct {
	Route int
	I, J  int
}

func (m TwoOpt) Kind() MoveKind { return KindTwoOpt }

func (m TwoOpt) Key() MoveKey {
	return MoveKey{Vehicle: m.Route, Pos: m.I, Other: m.Route, OtherPos: m.J, Kind: KindTwoOpt}
}

func (m TwoOpt) Delta(p *problem.Problem, s *Solution) float64 {
	a := s.Routes[m.Route].Stops
	before := p.Distance(a[m.I-1], a[m.I]) + p.Distance(a[m.J], a[m.J+1])
	after := p.Distance(a[m.I-1], a[m.J]) + p.Distance(a[m.I], a[m.J+1])
	return after - before
}

func (m TwoOpt) Apply(s *Solution) {
	reverse(s.Routes[m.Route].Stops, m.I, m.J)
}

// Relocate moves the stop at From.Stops[Pos] into route To, before To.Stops[Insert]
type Relocate struct {
	From, Pos  int
	To, Insert int
}

func (m Relocate) Kind() MoveKind { return KindRelocate }

func (m Relocate) Key() MoveKey {
	return MoveKey{Vehicle: m.From, Pos: m.Pos, Other: m.To, OtherPos: m.Insert, Kind: KindRelocate}
}

func (m Relocate) Delta(p *problem.Problem, s *Solution) float64 {
	src := s.Routes[m.From].Stops
	dst := s.Routes[m.To].Stops
	loc := src[m.Pos]
	removal := p.Distance(src[m.Pos-1], src[m.Pos+1]) - p.Distance(src[m.Pos-1], loc) - p.Distance(loc, src[m.Pos+1])
	return removal + insertionDelta(p, dst[m.Insert-1], loc, dst[m.Insert])
}

func (m Relocate) Apply(s *Solution) {
	loc := s.Routes[m.From].Stops[m.Pos]
	s.Routes[m.From].Stops = removeAt(s.Routes[m.From].Stops, m.Pos)
	s.Routes[m.To].Stops = insertAt(s.Routes[m.To].Stops, loc, m.Insert)
}

// Swap exchanges RouteA.Stops[PosA] with RouteB.Stops[PosB], RouteA < RouteB
type Swap struct {
	RouteA, PosA int
	RouteB, PosB int
}

func (m Swap) Kind() MoveKind { return KindSwap }

func (m Swap) Key() MoveKey {
	return MoveKey{Vehicle: m.RouteA, Pos: m.PosA, Other: m.RouteB, OtherPos: m.PosB, Kind: KindSwap}
}

func (m Swap) Delta(p *problem.Problem, s *Solution) float64 {
	a := s.Routes[m.RouteA].Stops
	b := s.Routes[m.RouteB].Stops
	x, y := a[m.PosA], b[m.PosB]
	return replaceDelta(p, a[m.PosA-1], x, y, a[m.PosA+1]) + replaceDelta(p, b[m.PosB-1], y, x, b[m.PosB+1])
}

func (m Swap) Apply(s *Solution) {
	a := s.Routes[m.RouteA].Stops
	b := s.Routes[m.RouteB].Stops
	a[m.PosA], b[m.PosB] = b[m.PosB], a[m.PosA]
}

// replaceDelta is the change of visiting in instead of out between prev and next
func replaceDelta(p *problem.Problem, prev, out, in, next int) float64 {
	return p.Distance(prev, in) + p.Distance(in, next) - p.Distance(prev, out) - p.Distance(out, next)
}
