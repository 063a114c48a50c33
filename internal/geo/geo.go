package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMiles is the mean Earth radius used by the great-circle formula.
const EarthRadiusMiles = 3959.0

// DefaultSpeedMph is the urban average speed used to turn distance into duration.
const DefaultSpeedMph = 30.0

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is an immutable (longitude, latitude) pair in degrees.
type Coordinate struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

func (c Coordinate) Valid() bool {
	return c.Lng >= -180 && c.Lng <= 180 && c.Lat >= -90 && c.Lat <= 90
}

// Check returns a wrapped ErrInvalidCoordinate when c is out of range.
func Check(c Coordinate) error {
	if !c.Valid() {
		return fmt.Errorf("%w: lng=%v lat=%v", ErrInvalidCoordinate, c.Lng, c.Lat)
	}
	return nil
}

// Distance returns the haversine great-circle distance between a and b in miles.
// Coordinates are assumed valid; callers validate at the boundary via Check.
func Distance(a, b Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMiles * c
}

// Matrix holds all-pairs travel distances (miles) and durations (minutes) for
// one optimization run. It is built once and shared read-only by every solver
// so all strategies measure the objective identically.
type Matrix struct {
	dist     [][]float64
	dur      [][]float64
	speedMph float64
}

// BuildMatrix computes pairwise distances for points and converts them to
// durations at the given average speed (mph). speedMph <= 0 selects the
// default. Duration is a deterministic function of distance, not a traffic
// estimate.
func BuildMatrix(points []Coordinate, speedMph float64) (*Matrix, error) {
	if speedMph <= 0 {
		speedMph = DefaultSpeedMph
	}
	for i, p := range points {
		if err := Check(p); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
	}
	n := len(points)
	m := &Matrix{
		dist:     make([][]float64, n),
		dur:      make([][]float64, n),
		speedMph: speedMph,
	}
	for i := 0; i < n; i++ {
		m.dist[i] = make([]float64, n)
		m.dur[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Distance(points[i], points[j])
			m.dist[i][j], m.dist[j][i] = d, d
			t := d / speedMph * 60
			m.dur[i][j], m.dur[j][i] = t, t
		}
	}
	return m, nil
}

func (m *Matrix) Len() int { return len(m.dist) }

func (m *Matrix) SpeedMph() float64 { return m.speedMph }

// DistanceMiles returns the travel distance between location indices i and j.
func (m *Matrix) DistanceMiles(i, j int) float64 { return m.dist[i][j] }

// DurationMinutes returns the travel duration between location indices i and j.
func (m *Matrix) DurationMinutes(i, j int) float64 { return m.dur[i][j] }
