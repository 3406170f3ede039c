package domain

import (
	"math"
	"testing"
)

func TestDistanceMetersZeroForIdenticalPoints(t *testing.T) {
	p := Coordinates{Lat: 33.948, Lon: -83.3773}
	if d := p.DistanceMeters(p); d != 0 {
		t.Fatalf("distance(a, a) = %v, want 0", d)
	}
}

func TestDistanceMetersSymmetricAndTriangle(t *testing.T) {
	points := []Coordinates{
		{Lat: 33.948, Lon: -83.3773},
		{Lat: 33.9519, Lon: -83.3747},
		{Lat: 33.9375, Lon: -83.3712},
		{Lat: 33.9609, Lon: -83.3779},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 51.5074, Lon: -0.1278},
	}

	const tol = 1e-6
	for _, a := range points {
		for _, b := range points {
			ab := a.DistanceMeters(b)
			ba := b.DistanceMeters(a)
			if math.Abs(ab-ba) > tol {
				t.Fatalf("distance not symmetric for %v, %v: %v vs %v", a, b, ab, ba)
			}
			for _, c := range points {
				ac := a.DistanceMeters(c)
				bc := b.DistanceMeters(c)
				if ac > ab+bc+tol {
					t.Fatalf("triangle inequality violated: d(%v,%v)=%v > %v + %v", a, c, ac, ab, bc)
				}
			}
		}
	}
}

func TestDistanceMetersKnownValue(t *testing.T) {
	// One degree of latitude along a meridian.
	a := Coordinates{Lat: 0, Lon: 0}
	b := Coordinates{Lat: 1, Lon: 0}
	want := EarthRadiusMeters * math.Pi / 180
	if got := a.DistanceMeters(b); math.Abs(got-want) > 0.001 {
		t.Fatalf("distance = %v, want %v", got, want)
	}
}

func TestCoordinatesKeyRounds(t *testing.T) {
	c := Coordinates{Lat: 33.9480004, Lon: -83.37730049}
	if got := c.Key(); got != "33.94800,-83.37730" {
		t.Fatalf("Key() = %q", got)
	}
	if got := c.CoordsToList(); got[0] != c.Lon || got[1] != c.Lat {
		t.Fatalf("CoordsToList() = %v, want [lon lat]", got)
	}
}
