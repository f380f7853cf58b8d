package geom

// Homography is a projective transform between two planes, stored as a 3x3
// matrix acting on homogeneous column vectors (x, y, 1).
type Homography struct {
	m [3][3]float64
}

// NewHomography builds the transform taking src corners onto the matching
// dst corners. Corner order must agree between the two planes; it is not
// checked. A degenerate plane produces a singular transform whose output
// is NaN or infinite.
func NewHomography(src, dst Plane2d) Homography {
	toSquare := squareToQuad(src).adjugate()
	fromSquare := squareToQuad(dst)
	return fromSquare.times(toSquare)
}

// Transform maps p from src to dst. Points outside src extrapolate.
func Transform(p Vector2d, src, dst Plane2d) Vector2d {
	return NewHomography(src, dst).Apply(p)
}

// Apply maps a single point.
func (h Homography) Apply(p Vector2d) Vector2d {
	w := h.m[2][0]*p.X + h.m[2][1]*p.Y + h.m[2][2]
	return Vector2d{
		X: (h.m[0][0]*p.X + h.m[0][1]*p.Y + h.m[0][2]) / w,
		Y: (h.m[1][0]*p.X + h.m[1][1]*p.Y + h.m[1][2]) / w,
	}
}

// squareToQuad maps the unit square (0,0) (1,0) (1,1) (0,1) onto the plane
// walked as A, B, D, C.
func squareToQuad(p Plane2d) Homography {
	x0, y0 := p.A.X, p.A.Y
	x1, y1 := p.B.X, p.B.Y
	x2, y2 := p.D.X, p.D.Y
	x3, y3 := p.C.X, p.C.Y

	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3
	if dx3 == 0 && dy3 == 0 {
		// parallelogram: affine
		return Homography{m: [3][3]float64{
			{x1 - x0, x2 - x1, x0},
			{y1 - y0, y2 - y1, y0},
			{0, 0, 1},
		}}
	}

	dx1, dx2 := x1-x2, x3-x2
	dy1, dy2 := y1-y2, y3-y2
	den := dx1*dy2 - dx2*dy1
	g := (dx3*dy2 - dx2*dy3) / den
	h := (dx1*dy3 - dx3*dy1) / den
	return Homography{m: [3][3]float64{
		{x1 - x0 + g*x1, x3 - x0 + h*x3, x0},
		{y1 - y0 + g*y1, y3 - y0 + h*y3, y0},
		{g, h, 1},
	}}
}

// adjugate is the inverse up to scale, which is all a projective transform needs.
func (h Homography) adjugate() Homography {
	m := h.m
	var a [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			r1, r2 := (c+1)%3, (c+2)%3
			c1, c2 := (r+1)%3, (r+2)%3
			a[r][c] = m[r1][c1]*m[r2][c2] - m[r1][c2]*m[r2][c1]
		}
	}
	return Homography{m: a}
}

func (h Homography) times(o Homography) Homography {
	var p [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			for k := 0; k < 3; k++ {
				p[r][c] += h.m[r][k] * o.m[k][c]
			}
		}
	}
	return Homography{m: p}
}
