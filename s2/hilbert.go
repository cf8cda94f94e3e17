package s2

import "sync"

const (
	lookupBits = 4
	swapMask   = 0x01
	invertMask = 0x02
)

var (
	// ijToPos maps an orientation and the (i,j) quadrant of a child,
	// encoded as (i<<1)|j, to the child's position along the curve.
	ijToPos = [4][4]int{
		{0, 1, 3, 2}, // canonical order
		{0, 3, 1, 2}, // axes swapped
		{2, 3, 1, 0}, // bits inverted
		{2, 1, 3, 0}, // swapped & inverted
	}

	// posToIJ is the inverse of ijToPos.
	posToIJ = [4][4]int{
		{0, 1, 3, 2}, // canonical order:    (0,0), (0,1), (1,1), (1,0)
		{0, 2, 3, 1}, // axes swapped:       (0,0), (1,0), (1,1), (0,1)
		{3, 2, 0, 1}, // bits inverted:      (1,1), (1,0), (0,0), (0,1)
		{3, 1, 0, 2}, // swapped & inverted: (1,1), (0,1), (0,0), (1,0)
	}

	// posToOrientation gives the change in orientation of a child relative
	// to its parent, by curve position.
	posToOrientation = [4]int{swapMask, 0, 0, invertMask | swapMask}
)

// hilbertTables translates 4 bits of i and 4 bits of j (plus an incoming
// orientation) into 8 bits of curve position (plus an outgoing orientation),
// and back.
//
// pos[(i<<6)|(j<<2)|orientation] = (pos<<2)|orientation
// ij[(pos<<2)|orientation]       = (i<<6)|(j<<2)|orientation
type hilbertTables struct {
	pos [1 << (2*lookupBits + 2)]int
	ij  [1 << (2*lookupBits + 2)]int
}

var (
	tablesOnce sync.Once
	tables     *hilbertTables
)

// lookupTables returns the process-wide tables, building them on first use.
func lookupTables() *hilbertTables {
	tablesOnce.Do(func() {
		t := &hilbertTables{}
		t.fill(0, 0, 0, 0, 0, 0)
		t.fill(0, 0, 0, swapMask, 0, swapMask)
		t.fill(0, 0, 0, invertMask, 0, invertMask)
		t.fill(0, 0, 0, swapMask|invertMask, 0, swapMask|invertMask)
		tables = t
	})
	return tables
}

func (t *hilbertTables) fill(level, i, j, origOrientation, pos, orientation int) {
	if level == lookupBits {
		ij := (i << lookupBits) + j
		t.pos[(ij<<2)+origOrientation] = (pos << 2) + orientation
		t.ij[(pos<<2)+origOrientation] = (ij << 2) + orientation
		return
	}

	level++
	i <<= 1
	j <<= 1
	pos <<= 2
	r := posToIJ[orientation]
	for k := 0; k < 4; k++ {
		t.fill(level, i+(r[k]>>1), j+(r[k]&1), origOrientation, pos+k, orientation^posToOrientation[k])
	}
}
