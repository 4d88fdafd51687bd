package trackfit

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

func TestFitCircle(t *testing.T) {
	tests := []struct {
		name   string
		center orb.Point
		radius float64
		from   float64
		to     float64
	}{
		{"full circle", orb.Point{3, -2}, 5, 0, 2 * math.Pi},
		{"short arc", orb.Point{-40, 25}, 120, 0.3, 0.9},
		{"large radius", orb.Point{800, 0}, 800, math.Pi - 0.1, math.Pi + 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pts []orb.Point
			for i := 0; i < 12; i++ {
				a := tt.from + (tt.to-tt.from)*float64(i)/12
				pts = append(pts, orb.Point{
					tt.center.X() + tt.radius*math.Cos(a),
					tt.center.Y() + tt.radius*math.Sin(a),
				})
			}
			c := FitCircle(pts)
			tol := 1e-6 * tt.radius
			if math.Abs(c.Radius-tt.radius) > tol {
				t.Errorf("radius = %v, want %v", c.Radius, tt.radius)
			}
			if d := planar.Distance(c.Center, tt.center); d > tol {
				t.Errorf("center = %v, want %v", c.Center, tt.center)
			}
		})
	}
}

func TestCircleCircleIntersection(t *testing.T) {
	tests := []struct {
		name   string
		r1, r2 float64
		x2, y2 float64
		want   []orb.Point
	}{
		{"two points", 5, 5, 6, 0, []orb.Point{{3, 4}, {3, -4}}},
		{"tangent", 2, 3, 5, 0, []orb.Point{{2, 0}}},
		{"disjoint", 1, 1, 5, 0, nil},
		{"contained", 10, 1, 1, 0, nil},
		{"concentric", 3, 3, 0, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CircleCircleIntersection(tt.r1, tt.r2, tt.x2, tt.y2)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d points %v, want %d", len(got), got, len(tt.want))
			}
			for _, w := range tt.want {
				p, _ := NearestPoint(got, w)
				if planar.Distance(p, w) > 1e-9 {
					t.Errorf("missing point %v in %v", w, got)
				}
			}
			// Every point lies on both circles.
			for _, p := range got {
				if d := math.Hypot(p.X(), p.Y()); math.Abs(d-tt.r1) > 1e-9 {
					t.Errorf("%v is %v from origin, want %v", p, d, tt.r1)
				}
				if d := math.Hypot(p.X()-tt.x2, p.Y()-tt.y2); math.Abs(d-tt.r2) > 1e-9 {
					t.Errorf("%v is %v from second center, want %v", p, d, tt.r2)
				}
			}
		})
	}
}

func TestCircleLineIntersection(t *testing.T) {
	c := Circle{Center: orb.Point{0, 0}, Radius: 5}

	got := circleLineIntersection(c, orb.Point{1, 0}, 3)
	if len(got) != 2 {
		t.Fatalf("got %v, want two points", got)
	}
	for _, p := range got {
		if math.Abs(p.X()-3) > 1e-12 || math.Abs(math.Abs(p.Y())-4) > 1e-12 {
			t.Errorf("unexpected point %v", p)
		}
	}

	if got := circleLineIntersection(c, orb.Point{0, 1}, 7); got != nil {
		t.Errorf("line outside circle: got %v, want none", got)
	}
	if got := circleLineIntersection(c, orb.Point{0, 1}, 5); len(got) != 1 {
		t.Errorf("tangent line: got %v, want one point", got)
	}
}

func TestLowestAndNearestPoint(t *testing.T) {
	pts := []orb.Point{{1, 2}, {-3, -1}, {4, 0}}

	low, ok := LowestPoint(pts)
	if !ok || low != (orb.Point{-3, -1}) {
		t.Errorf("LowestPoint = %v, %v", low, ok)
	}
	near, ok := NearestPoint(pts, orb.Point{5, 0})
	if !ok || near != (orb.Point{4, 0}) {
		t.Errorf("NearestPoint = %v, %v", near, ok)
	}
	if _, ok := LowestPoint(nil); ok {
		t.Error("LowestPoint(nil) reported a point")
	}
	if _, ok := NearestPoint(nil, orb.Point{}); ok {
		t.Error("NearestPoint(nil) reported a point")
	}
}
