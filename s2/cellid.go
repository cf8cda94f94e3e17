package s2

import (
	"bytes"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
)

// CellID uniquely identifies a cell in the S2 cell decomposition.
// The most significant 3 bits encode the face number (0-5). The
// remaining 61 bits encode the position of the center of this cell
// along the Hilbert curve on that face. The zero value and the value
// (1<<64)-1 are invalid cell IDs. The first compares less than any
// valid cell ID, the second as greater than any valid cell ID.
//
// Sequentially increasing cell IDs follow a continuous space-filling curve
// over the entire sphere. They have the following properties:
//
//   - The ID of a cell at level k consists of a 3-bit face number followed
//     by k bit pairs that recursively select one of the four children of
//     each cell. The next bit is always 1, and all other bits are 0.
//     Therefore, the level of a cell is determined by the position of its
//     lowest-numbered bit that is turned on (for a cell at level k, this
//     position is 2 * (maxLevel - k)).
//
//   - The ID of a parent cell is at the midpoint of the range of IDs spanned
//     by its children (or by its descendants at any level).
type CellID uint64

const (
	// MaxLevel is the level of leaf cells.
	MaxLevel = 30

	maxLevel = MaxLevel
	numFaces = 6
	faceBits = 3
	posBits  = 2*maxLevel + 1
	maxSize  = 1 << maxLevel

	// wrapOffset is the distance NextWrap and PrevWrap jump to get from one
	// end of the curve to the other.
	wrapOffset = uint64(numFaces) << posBits

	// alternateLevelMask has a 1 in the sentinel position of every level
	// whose orientation differs from the one decoded for its leaf position.
	alternateLevelMask = 0x1111111111111110
)

// CellIDFromFace returns the level-0 cell for the given face.
func CellIDFromFace(face int) CellID {
	return CellID((uint64(face) << posBits) + lsbForLevel(0))
}

// CellIDFromFacePosLevel returns a cell given its face in the range
// [0,5], the 61-bit Hilbert curve position pos within that face, and
// the level in the range [0,maxLevel]. The position in the cell ID
// will be truncated to correspond to the Hilbert curve position at
// the center of the returned cell.
func CellIDFromFacePosLevel(face int, pos uint64, level int) CellID {
	return CellID(uint64(face)<<posBits + pos | 1).Parent(level)
}

// CellIDFromPoint returns the leaf cell containing the point p.
func CellIDFromPoint(p Point) CellID {
	f, u, v := XYZToFaceUV(p.Vector)
	return CellIDFromFaceIJ(f, STToIJ(UVToST(u)), STToIJ(UVToST(v)))
}

// CellIDFromLonLat returns the leaf cell containing the given longitude
// and latitude, both in degrees.
func CellIDFromLonLat(lon, lat float64) CellID {
	return CellIDFromPoint(PointFromLonLat(lon, lat))
}

// CellIDFromLatLng returns the leaf cell containing ll.
func CellIDFromLatLng(ll LatLng) CellID {
	return CellIDFromPoint(PointFromLatLng(ll))
}

// CellIDFromFaceST returns the leaf cell containing (s,t) on face f.
func CellIDFromFaceST(f int, s, t float64) CellID {
	return CellIDFromFaceIJ(f, STToIJ(s), STToIJ(t))
}

// CellIDFromFaceUV returns the leaf cell containing (u,v) on face f.
func CellIDFromFaceUV(f int, u, v float64) CellID {
	return CellIDFromFaceST(f, UVToST(u), UVToST(v))
}

// CellIDFromFaceIJ returns the leaf cell with the given leaf coordinates.
func CellIDFromFaceIJ(f, i, j int) CellID {
	t := lookupTables()
	// Note that this value gets shifted one bit to the left at the end
	// of the function.
	n := uint64(f) << (posBits - 1)
	// Alternating faces have opposite Hilbert curve orientations; this
	// is necessary in order for all faces to have a right-handed
	// coordinate system.
	b := f & swapMask
	// Each iteration maps 4 bits of "i" and "j" into 8 bits of the Hilbert
	// curve position. The lookup table transforms a 10-bit key of the form
	// "iiiijjjjoo" to a 10-bit value of the form "ppppppppoo", where the
	// letters [ijpo] denote bits of "i", "j", Hilbert curve position, and
	// Hilbert curve orientation respectively.
	for k := 7; k >= 0; k-- {
		mask := (1 << lookupBits) - 1
		b += ((i >> uint(k*lookupBits)) & mask) << (lookupBits + 2)
		b += ((j >> uint(k*lookupBits)) & mask) << 2
		b = t.pos[b]
		n |= uint64(b>>2) << (uint(k) * 2 * lookupBits)
		b &= (swapMask | invertMask)
	}
	return CellID(n*2 + 1)
}

// CellIDFromFaceIJLevel returns the cell at level containing the leaf
// cell (f, i, j).
func CellIDFromFaceIJLevel(f, i, j, level int) CellID {
	return CellIDFromFaceIJ(f, i, j).Parent(level)
}

// cellIDFromFaceIJWrap returns the leaf cell for (i,j) even when (i,j) lie
// just outside the bounds of face f, by reprojecting onto the neighboring
// face.
func cellIDFromFaceIJWrap(f, i, j int) CellID {
	// Convert i and j to the coordinates of a leaf cell just beyond the
	// boundary of this face. This prevents overflow in the case of finding
	// the neighbors of a face cell.
	i = clampInt(i, -1, maxSize)
	j = clampInt(j, -1, maxSize)

	// Convert (i,j) to (x,y,z), which yields a point outside the face
	// boundary, and project back onto whichever face that point lands on.
	// (i,j) -> (u,v) uses the linear projection u = 2s-1, and the return
	// trip its inverse; any projection works here so use the simplest. The
	// (u,v) values are clamped so the point is barely outside the face,
	// since otherwise the division by the new axis component could push
	// the other coordinates into the wrong leaf cell.
	const scale = 1.0 / maxSize
	limit := math.Nextafter(1, 2)
	u := max(-limit, min(limit, scale*float64((i<<1)+1-maxSize)))
	v := max(-limit, min(limit, scale*float64((j<<1)+1-maxSize)))

	f, u, v = XYZToFaceUV(FaceUVToXYZ(f, u, v))
	return CellIDFromFaceIJ(f, STToIJ(0.5*(u+1)), STToIJ(0.5*(v+1)))
}

func cellIDFromFaceIJSame(f, i, j int, sameFace bool) CellID {
	if sameFace {
		return CellIDFromFaceIJ(f, i, j)
	}
	return cellIDFromFaceIJWrap(f, i, j)
}

// CellIDFromToken returns a cell given a hex-encoded string of its uint64 ID.
// Malformed tokens yield the zero (invalid) cell.
func CellIDFromToken(s string) CellID {
	if len(s) > 16 {
		return CellID(0)
	}
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return CellID(0)
	}
	// Equivalent to right-padding string with zeros to 16 characters.
	if len(s) < 16 {
		n = n << (4 * uint(16-len(s)))
	}
	return CellID(n)
}

// ToToken returns a hex-encoded string of the uint64 cell id, with leading
// zeros included but trailing zeros stripped.
func (ci CellID) ToToken() string {
	s := strings.TrimRight(fmt.Sprintf("%016x", uint64(ci)), "0")
	if len(s) == 0 {
		return "X"
	}
	return s
}

// IsValid reports whether ci represents a valid cell.
func (ci CellID) IsValid() bool {
	return ci.Face() < numFaces && (ci.lsb()&0x1555555555555555 != 0)
}

// Face returns the cube face for this cell ID, in the range [0,5].
func (ci CellID) Face() int { return int(uint64(ci) >> posBits) }

// Pos returns the position along the Hilbert curve of this cell ID, in the
// range [0,2^posBits-1].
func (ci CellID) Pos() uint64 { return uint64(ci) & (^uint64(0) >> faceBits) }

// Level returns the subdivision level of this cell ID, in the range
// [0, maxLevel].
func (ci CellID) Level() int {
	return maxLevel - bits.TrailingZeros64(uint64(ci))>>1
}

// IsLeaf returns whether this cell ID is at the deepest level; that is,
// the level at which the cells are smallest.
func (ci CellID) IsLeaf() bool { return uint64(ci)&1 != 0 }

// IsFace returns whether this is a top-level (face) cell.
func (ci CellID) IsFace() bool { return uint64(ci)&(lsbForLevel(0)-1) == 0 }

// ChildPosition returns the child position (0..3) of this cell's ancestor
// at the given level, relative to its parent. The argument should be in
// the range 1..maxLevel.
func (ci CellID) ChildPosition(level int) int {
	return int(uint64(ci)>>uint64(2*(maxLevel-level)+1)) & 3
}

// lsb returns the least significant bit that is set.
func (ci CellID) lsb() uint64 { return uint64(ci) & -uint64(ci) }

// lsbForLevel returns the lowest-numbered bit that is on for cells at the
// given level.
func lsbForLevel(level int) uint64 { return 1 << uint64(2*(maxLevel-level)) }

// sizeIJ returns the edge length, in leaf cells, of cells at level.
func sizeIJ(level int) int { return 1 << uint(maxLevel-level) }

// Parent returns the cell at the given level, which must be no greater
// than the current level.
func (ci CellID) Parent(level int) CellID {
	lsb := lsbForLevel(level)
	return CellID((uint64(ci) & -lsb) | lsb)
}

// ImmediateParent is cheaper than Parent, but assumes !ci.IsFace().
func (ci CellID) ImmediateParent() CellID {
	nlsb := CellID(ci.lsb() << 2)
	return (ci & -nlsb) | nlsb
}

// Child returns the child cell at position pos (0..3) along the Hilbert
// curve. ci must not be a leaf.
func (ci CellID) Child(pos int) CellID {
	nlsb := ci.lsb() >> 2
	return CellID(uint64(ci) - 3*nlsb + uint64(2*pos)*nlsb)
}

// Children returns the four immediate children of this cell in Hilbert
// curve order. ci must not be a leaf.
func (ci CellID) Children() [4]CellID {
	var ch [4]CellID
	lsb := CellID(ci.lsb())
	ch[0] = ci - lsb + lsb>>2
	lsb >>= 1
	ch[1] = ch[0] + lsb
	ch[2] = ch[1] + lsb
	ch[3] = ch[2] + lsb
	return ch
}

// ccwSlot maps a child quadrant (i<<1)|j to its slot in counter-clockwise
// order starting from the lower left.
var ccwSlot = [4]int{0, 3, 1, 2}

// ChildrenCCW returns the four immediate children ordered counter-clockwise
// in (i,j) space: lower left, lower right, upper right, upper left. The
// order does not depend on the orientation of the Hilbert curve inside ci.
func (ci CellID) ChildrenCCW() [4]CellID {
	_, _, _, o := ci.FaceIJOrientation()
	var out [4]CellID
	for k, child := range ci.Children() {
		out[ccwSlot[posToIJ[o][k]]] = child
	}
	return out
}

// ChildrenIJ returns the four children of the cell at (i,j) on face f at
// the given level, where i and j are in the range [0, 2^level). The
// children are in counter-clockwise order starting from the lower left.
func ChildrenIJ(f, level, i, j int) [4]CellID {
	shift := maxLevel - (level + 1)
	i, j = i<<1, j<<1
	return [4]CellID{
		CellIDFromFaceIJLevel(f, i<<shift, j<<shift, level+1),
		CellIDFromFaceIJLevel(f, (i+1)<<shift, j<<shift, level+1),
		CellIDFromFaceIJLevel(f, (i+1)<<shift, (j+1)<<shift, level+1),
		CellIDFromFaceIJLevel(f, i<<shift, (j+1)<<shift, level+1),
	}
}

// ChildBegin returns the first child in a traversal of the children of
// this cell, in Hilbert curve order.
//
//	for ci := c.ChildBegin(); ci != c.ChildEnd(); ci = ci.Next() {
//	    ...
//	}
func (ci CellID) ChildBegin() CellID {
	ol := ci.lsb()
	return CellID(uint64(ci) - ol + ol>>2)
}

// ChildBeginAtLevel returns the first cell in a traversal of children a
// given level deeper than this cell, in Hilbert curve order. The given
// level must be no smaller than the cell's level.
func (ci CellID) ChildBeginAtLevel(level int) CellID {
	return CellID(uint64(ci) - ci.lsb() + lsbForLevel(level))
}

// ChildEnd returns the first cell after a traversal of the children of
// this cell in Hilbert curve order. The returned cell may be invalid.
func (ci CellID) ChildEnd() CellID {
	ol := ci.lsb()
	return CellID(uint64(ci) + ol + ol>>2)
}

// ChildEndAtLevel returns the first cell after the last child in a
// traversal of children a given level deeper than this cell, in Hilbert
// curve order. The given level must be no smaller than the cell's level.
// The returned cell may be invalid.
func (ci CellID) ChildEndAtLevel(level int) CellID {
	return CellID(uint64(ci) + ci.lsb() + lsbForLevel(level))
}

// Range returns the first and last leaf cells contained by this cell.
func (ci CellID) Range() (lo, hi CellID) {
	return ci.RangeMin(), ci.RangeMax()
}

// RangeMin returns the minimum CellID that is contained within this cell.
func (ci CellID) RangeMin() CellID { return CellID(uint64(ci) - (ci.lsb() - 1)) }

// RangeMax returns the maximum CellID that is contained within this cell.
func (ci CellID) RangeMax() CellID { return CellID(uint64(ci) + (ci.lsb() - 1)) }

// Contains returns true iff the CellID contains oci.
func (ci CellID) Contains(oci CellID) bool {
	return uint64(ci.RangeMin()) <= uint64(oci) && uint64(oci) <= uint64(ci.RangeMax())
}

// Intersects returns true iff the CellID intersects oci.
func (ci CellID) Intersects(oci CellID) bool {
	return uint64(oci.RangeMin()) <= uint64(ci.RangeMax()) && uint64(oci.RangeMax()) >= uint64(ci.RangeMin())
}

// Next returns the next cell along the Hilbert curve.
// This is expected to be used with ChildBegin and ChildEnd,
// or ChildBeginAtLevel and ChildEndAtLevel.
func (ci CellID) Next() CellID {
	return CellID(uint64(ci) + ci.lsb()<<1)
}

// Prev returns the previous cell along the Hilbert curve.
func (ci CellID) Prev() CellID {
	return CellID(uint64(ci) - ci.lsb()<<1)
}

// NextWrap returns the next cell along the Hilbert curve, wrapping from last to
// first as necessary. This should not be used with ChildBegin and ChildEnd.
func (ci CellID) NextWrap() CellID {
	n := ci.Next()
	if uint64(n) < wrapOffset {
		return n
	}
	return CellID(uint64(n) - wrapOffset)
}

// PrevWrap returns the previous cell along the Hilbert curve, wrapping around from
// first to last as necessary. This should not be used with ChildBegin and ChildEnd.
func (ci CellID) PrevWrap() CellID {
	p := ci.Prev()
	if uint64(p) < wrapOffset {
		return p
	}
	return CellID(uint64(p) + wrapOffset)
}

// Begin returns the first cell of the given level along the Hilbert curve.
func Begin(level int) CellID {
	return CellIDFromFace(0).ChildBeginAtLevel(level)
}

// End returns the cell one past the last cell of the given level.
func End(level int) CellID {
	return CellIDFromFace(numFaces - 1).ChildEndAtLevel(level)
}

// FaceIJOrientation returns the face, the leaf (i,j) coordinates of the
// cell's center leaf, and the Hilbert curve orientation of the cell.
func (ci CellID) FaceIJOrientation() (f, i, j, orientation int) {
	t := lookupTables()
	f = ci.Face()
	orientation = f & swapMask
	nbits := maxLevel - 7*lookupBits // first iteration

	// Each iteration maps 8 bits of the Hilbert curve position into
	// 4 bits of "i" and "j". The lookup table transforms a key of the
	// form "ppppppppoo" to a value of the form "iiiijjjjoo", where the
	// letters [ijpo] represents bits of "i", "j", the Hilbert curve
	// position, and the Hilbert curve orientation respectively.
	//
	// On the first iteration we need to be careful to clear out the bits
	// representing the cube face.
	for k := 7; k >= 0; k-- {
		orientation += (int(uint64(ci)>>uint64(k*2*lookupBits+1)) & ((1 << uint(2*nbits)) - 1)) << 2
		orientation = t.ij[orientation]
		i += (orientation >> (lookupBits + 2)) << uint(k*lookupBits)
		j += ((orientation >> 2) & ((1 << lookupBits) - 1)) << uint(k*lookupBits)
		orientation &= (swapMask | invertMask)
		nbits = lookupBits // following iterations
	}

	// The position of a non-leaf cell at level "n" consists of a prefix of
	// 2*n bits that identifies the cell, followed by a suffix of
	// 2*(maxLevel-n)+1 bits of the form 10*. If n==maxLevel, the suffix is
	// just "1" and has no effect. Otherwise, it consists of "10", followed
	// by (maxLevel-n-1) repetitions of "00", followed by "0". The "10" has
	// no effect, while each occurrence of "00" has the effect of reversing
	// the swapMask bit.
	if ci.lsb()&alternateLevelMask != 0 {
		orientation ^= swapMask
	}
	return f, i, j, orientation
}

// FaceIJ returns the face and the leaf (i,j) coordinates of the cell.
func (ci CellID) FaceIJ() (f, i, j int) {
	f, i, j, _ = ci.FaceIJOrientation()
	return f, i, j
}

// FaceIJLevel returns the face and the (i,j) coordinates of the cell
// scaled down to the given level, so that i and j are in [0, 2^level).
func (ci CellID) FaceIJLevel(level int) (f, i, j int) {
	f, i, j = ci.FaceIJ()
	shift := uint(maxLevel - level)
	return f, i >> shift, j >> shift
}

// faceSiTi returns the face and the (si,ti) coordinates of the cell
// center.
func (ci CellID) faceSiTi() (f int, si, ti uint32) {
	f, i, j, _ := ci.FaceIJOrientation()
	delta := 0
	if ci.IsLeaf() {
		delta = 1
	} else if (i^(int(ci)>>2))&1 != 0 {
		delta = 2
	}
	return f, uint32(2*i + delta), uint32(2*j + delta)
}

// FaceST returns the face and the (s,t) coordinates of the cell center.
func (ci CellID) FaceST() (f int, s, t float64) {
	f, si, ti := ci.faceSiTi()
	return f, SiTiToST(si), SiTiToST(ti)
}

// FaceUV returns the face and the (u,v) coordinates of the cell center.
func (ci CellID) FaceUV() (f int, u, v float64) {
	f, s, t := ci.FaceST()
	return f, STToUV(s), STToUV(t)
}

// rawPoint returns an unnormalized r3 vector from the origin through the
// center of the cell on the sphere.
func (ci CellID) rawPoint() r3.Vector {
	f, u, v := ci.FaceUV()
	return FaceUVToXYZ(f, u, v)
}

// Point returns the center of the cell on the sphere.
func (ci CellID) Point() Point { return Point{ci.rawPoint().Normalize()} }

// LatLng returns the center of the cell as a LatLng.
func (ci CellID) LatLng() LatLng { return LatLngFromPoint(ci.Point()) }

// LonLat returns the center of the cell in degrees.
func (ci CellID) LonLat() (lon, lat float64) { return ci.Point().LonLat() }

// EdgeNeighbors returns the four cells that are adjacent across the cell's
// four edges. Edges 0, 1, 2, 3 are in the down, right, up, left directions
// in the face space. All neighbors are guaranteed to be distinct.
func (ci CellID) EdgeNeighbors() [4]CellID {
	level := ci.Level()
	size := sizeIJ(level)
	f, i, j, _ := ci.FaceIJOrientation()
	return [4]CellID{
		cellIDFromFaceIJWrap(f, i, j-size).Parent(level),
		cellIDFromFaceIJWrap(f, i+size, j).Parent(level),
		cellIDFromFaceIJWrap(f, i, j+size).Parent(level),
		cellIDFromFaceIJWrap(f, i-size, j).Parent(level),
	}
}

// NeighborsIJ returns the edge neighbors of the cell at (i,j) on face f at
// the given level, where i and j are in the range [0, 2^level).
func NeighborsIJ(f, i, j, level int) [4]CellID {
	shift := uint(maxLevel - level)
	return CellIDFromFaceIJLevel(f, i<<shift, j<<shift, level).EdgeNeighbors()
}

// VertexNeighbors returns the neighboring cellIDs with vertex closest to
// this cell at the given level. (Normally there are four neighbors, but
// the closest vertex may only have three neighbors if it is one of the 8
// cube vertices.) The level must be smaller than the cell's level.
func (ci CellID) VertexNeighbors(level int) []CellID {
	halfSize := sizeIJ(level + 1)
	size := halfSize << 1
	f, i, j, _ := ci.FaceIJOrientation()

	var isame, jsame bool
	var ioffset, joffset int
	if i&halfSize != 0 {
		ioffset = size
		isame = (i + size) < maxSize
	} else {
		ioffset = -size
		isame = (i - size) >= 0
	}
	if j&halfSize != 0 {
		joffset = size
		jsame = (j + size) < maxSize
	} else {
		joffset = -size
		jsame = (j - size) >= 0
	}

	results := []CellID{
		ci.Parent(level),
		cellIDFromFaceIJSame(f, i+ioffset, j, isame).Parent(level),
		cellIDFromFaceIJSame(f, i, j+joffset, jsame).Parent(level),
	}
	if isame || jsame {
		results = append(results, cellIDFromFaceIJSame(f, i+ioffset, j+joffset, isame && jsame).Parent(level))
	}
	return results
}

// Vertices returns the four corners of the cell in counter-clockwise order
// in (u,v) space.
func (ci CellID) Vertices() [4]Point {
	c := CellFromCellID(ci)
	var vs [4]Point
	for k := range vs {
		vs[k] = c.Vertex(k)
	}
	return vs
}

// EdgesRaw returns the inward-facing, unnormalized normals of the great
// circles through the cell's four edges (bottom, right, top, left).
func (ci CellID) EdgesRaw() [4]r3.Vector {
	c := CellFromCellID(ci)
	var es [4]r3.Vector
	for k := range es {
		es[k] = c.EdgeRaw(k).Vector
	}
	return es
}

// String returns the string representation of the cell ID in the form
// "1/3210".
func (ci CellID) String() string {
	if !ci.IsValid() {
		return "Invalid: " + strconv.FormatInt(int64(ci), 16)
	}
	var b bytes.Buffer
	b.WriteByte("012345"[ci.Face()]) // values > 5 will have been picked off by !IsValid above
	b.WriteByte('/')
	for level := 1; level <= ci.Level(); level++ {
		b.WriteByte("0123"[ci.ChildPosition(level)])
	}
	return b.String()
}
