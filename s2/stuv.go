package s2

import (
	"math"

	"github.com/golang/geo/r3"
)

// There are three coordinate systems in use on each cube face:
//
//	(u,v)  the raw gnomonic projection of a point onto the face, in [-1,1].
//	(s,t)  u and v warped by the quadratic transform so that cells at a given
//	       level have roughly equal area, in [0,1].
//	(i,j)  s and t quantized to 30 bits, in [0, 2^30-1]. Leaf cells are
//	       addressed by (face, i, j).
//
// (si,ti) are s and t scaled by 2^31, which lets cell centers and cell
// boundaries share one integer grid.

const (
	maxSiTi = maxSize << 1
)

// STToUV converts an s or t value to the corresponding u or v value
// using the quadratic projection.
func STToUV(s float64) float64 {
	if s >= 0.5 {
		return (1 / 3.) * (4*s*s - 1)
	}
	return (1 / 3.) * (1 - 4*(1-s)*(1-s))
}

// UVToST is the inverse of STToUV.
func UVToST(u float64) float64 {
	if u >= 0 {
		return 0.5 * math.Sqrt(1+3*u)
	}
	return 1 - 0.5*math.Sqrt(1-3*u)
}

// STToIJ returns the leaf cell coordinate containing s, clamped to the
// valid range of the face.
func STToIJ(s float64) int {
	return clampInt(int(math.Floor(maxSize*s)), 0, maxSize-1)
}

// IJToSTMin returns the s or t value of the lower edge of leaf cell i.
func IJToSTMin(i int) float64 {
	return float64(i) / maxSize
}

// SiTiToST converts an si or ti value to an s or t value.
func SiTiToST(si uint32) float64 {
	if si > maxSiTi {
		return 1.0
	}
	return float64(si) / maxSiTi
}

// face returns the face whose axis is the largest-magnitude component of r.
func face(r r3.Vector) int {
	ax, ay, az := math.Abs(r.X), math.Abs(r.Y), math.Abs(r.Z)
	f := 2
	switch {
	case ax > ay && ax > az:
		f = 0
		if r.X < 0 {
			f = 3
		}
	case ay > az:
		f = 1
		if r.Y < 0 {
			f = 4
		}
	default:
		if r.Z < 0 {
			f = 5
		}
	}
	return f
}

// XYZToFaceUV returns the face containing r and the (u,v) coordinates of r
// projected onto that face. r need not be unit length.
func XYZToFaceUV(r r3.Vector) (f int, u, v float64) {
	f = face(r)
	u, v = validFaceXYZToUV(f, r)
	return f, u, v
}

// validFaceXYZToUV projects r onto face f. The caller must ensure that r
// lies on the near side of f.
func validFaceXYZToUV(f int, r r3.Vector) (u, v float64) {
	switch f {
	case 0:
		u, v = r.Y/r.X, r.Z/r.X
	case 1:
		u, v = -r.X/r.Y, r.Z/r.Y
	case 2:
		u, v = -r.X/r.Z, -r.Y/r.Z
	case 3:
		u, v = r.Z/r.X, r.Y/r.X
	case 4:
		u, v = r.Z/r.Y, -r.X/r.Y
	default:
		u, v = -r.Y/r.Z, -r.X/r.Z
	}
	return u, v
}

// FaceXYZToUV projects r onto face f. ok is false when r is on the far
// side of the face, in which case u and v are meaningless.
func FaceXYZToUV(f int, r r3.Vector) (u, v float64, ok bool) {
	switch f {
	case 0:
		ok = r.X > 0
	case 1:
		ok = r.Y > 0
	case 2:
		ok = r.Z > 0
	case 3:
		ok = r.X < 0
	case 4:
		ok = r.Y < 0
	default:
		ok = r.Z < 0
	}
	if !ok {
		return 0, 0, false
	}
	u, v = validFaceXYZToUV(f, r)
	return u, v, true
}

// FaceUVToXYZ turns face and (u,v) coordinates into an unnormalized
// direction vector.
func FaceUVToXYZ(f int, u, v float64) r3.Vector {
	switch f {
	case 0:
		return r3.Vector{X: 1, Y: u, Z: v}
	case 1:
		return r3.Vector{X: -u, Y: 1, Z: v}
	case 2:
		return r3.Vector{X: -u, Y: -v, Z: 1}
	case 3:
		return r3.Vector{X: -1, Y: -v, Z: -u}
	case 4:
		return r3.Vector{X: v, Y: -1, Z: -u}
	default:
		return r3.Vector{X: v, Y: u, Z: -1}
	}
}

// FaceSTToPoint returns the unit vector for the given face and (s,t).
func FaceSTToPoint(f int, s, t float64) Point {
	return Point{FaceUVToXYZ(f, STToUV(s), STToUV(t)).Normalize()}
}

// XYZToFaceST returns the face containing r and its (s,t) coordinates.
func XYZToFaceST(r r3.Vector) (f int, s, t float64) {
	f, u, v := XYZToFaceUV(r)
	return f, UVToST(u), UVToST(v)
}

// uNorm returns the right-handed normal (not necessarily unit length) of
// the plane through the origin and the line u = constant on face f.
func uNorm(f int, u float64) r3.Vector {
	switch f {
	case 0:
		return r3.Vector{X: u, Y: -1, Z: 0}
	case 1:
		return r3.Vector{X: 1, Y: u, Z: 0}
	case 2:
		return r3.Vector{X: 1, Y: 0, Z: u}
	case 3:
		return r3.Vector{X: -u, Y: 0, Z: 1}
	case 4:
		return r3.Vector{X: 0, Y: -u, Z: 1}
	default:
		return r3.Vector{X: 0, Y: -1, Z: -u}
	}
}

// vNorm is the v = constant counterpart of uNorm.
func vNorm(f int, v float64) r3.Vector {
	switch f {
	case 0:
		return r3.Vector{X: -v, Y: 0, Z: 1}
	case 1:
		return r3.Vector{X: 0, Y: -v, Z: 1}
	case 2:
		return r3.Vector{X: 0, Y: -1, Z: -v}
	case 3:
		return r3.Vector{X: v, Y: -1, Z: 0}
	case 4:
		return r3.Vector{X: 1, Y: v, Z: 0}
	default:
		return r3.Vector{X: 1, Y: 0, Z: v}
	}
}
