package s2

import "container/heap"

const (
	// By default, the covering uses at most 8 cells at any level. This
	// gives a reasonable tradeoff between the number of cells used and the
	// accuracy of the approximation.
	defaultMaxCells = 8
)

// RegionCoverer approximates a region with a bounded number of cells.
//
// Cells are chosen between MinLevel and MaxLevel, at levels that are
// MinLevel plus a multiple of LevelMod. MaxCells is a soft limit: the
// coverer returns more cells only when the level constraints force it to,
// for example when the region straddles more MinLevel cells than MaxCells.
//
// The covering is complete: every cell that intersects the region is
// covered. Fewer cells mean larger ones and a looser fit.
type RegionCoverer struct {
	MinLevel int
	MaxLevel int
	LevelMod int
	MaxCells int
}

// NewRegionCoverer returns a coverer over all levels with the default cell
// budget.
func NewRegionCoverer() *RegionCoverer {
	return &RegionCoverer{
		MinLevel: 0,
		MaxLevel: maxLevel,
		LevelMod: 1,
		MaxCells: defaultMaxCells,
	}
}

type candidate struct {
	cell     Cell
	terminal bool // cell should not be expanded further
	children []*candidate
}

type candidateEntry struct {
	candidate *candidate
	priority  int
}

type priorityQueue []*candidateEntry

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].priority > pq[j].priority }
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)        { *pq = append(*pq, x.(*candidateEntry)) }

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	entry := old[n-1]
	*pq = old[:n-1]
	return entry
}

// coverer is the state of one covering run.
type coverer struct {
	minLevel int
	maxLevel int
	levelMod int
	maxCells int
	region   Region
	result   CellUnion
	pq       priorityQueue
}

// maxChildrenShift returns the log base 2 of the maximum number of children
// of a candidate.
func (c *coverer) maxChildrenShift() int { return 2 * c.levelMod }

func (c *coverer) newCandidate(cell Cell) *candidate {
	if !c.region.MayIntersect(cell) {
		return nil
	}
	terminal := false
	if level := cell.Level(); level >= c.minLevel {
		if level+c.levelMod > c.maxLevel || c.region.ContainsCell(cell) {
			terminal = true
		}
	}
	return &candidate{cell: cell, terminal: terminal}
}

// expandChildren populates the children of cand by expanding the given
// number of levels below cell, and returns how many of them are terminal.
func (c *coverer) expandChildren(cand *candidate, cell Cell, numLevels int) int {
	numLevels--
	children, ok := cell.Children()
	if !ok {
		return 0
	}
	numTerminals := 0
	for _, child := range children {
		if numLevels > 0 {
			if c.region.MayIntersect(child) {
				numTerminals += c.expandChildren(cand, child, numLevels)
			}
			continue
		}
		if cc := c.newCandidate(child); cc != nil {
			cand.children = append(cand.children, cc)
			if cc.terminal {
				numTerminals++
			}
		}
	}
	return numTerminals
}

// addCandidate adds cand to the result if it is terminal, and otherwise
// expands it and queues it for refinement.
func (c *coverer) addCandidate(cand *candidate) {
	if cand == nil {
		return
	}
	if cand.terminal {
		c.result = append(c.result, cand.cell.ID())
		return
	}

	// Expand one level at a time until minLevel so it is not skipped.
	level := cand.cell.Level()
	numLevels := c.levelMod
	if level < c.minLevel {
		numLevels = 1
	}
	numTerminals := c.expandChildren(cand, cand.cell, numLevels)
	shift := uint(c.maxChildrenShift())
	numChildren := len(cand.children)

	switch {
	case numChildren == 0:
		// Nothing below intersects the region.
	case numTerminals == 1<<shift && level >= c.minLevel:
		// Every child is terminal, so the parent covers the same area
		// with one cell.
		cand.terminal = true
		c.addCandidate(cand)
	default:
		// Refine the largest cells first, then those with the fewest
		// intersecting children, then those with the fewest terminal
		// children. The heap pops the highest priority, so negate.
		priority := -((((level << shift) + numChildren) << shift) + numTerminals)
		heap.Push(&c.pq, &candidateEntry{cand, priority})
	}
}

// initialCandidates seeds the queue with the six faces, or with the four
// cells around the region's bounding cap when that cap is small.
func (c *coverer) initialCandidates() {
	if c.maxCells >= 4 {
		// The deepest level at which the bounding cap touches at most
		// one cell vertex.
		bound := c.region.CapBound()
		level := min(MinWidth.MaxLevel(2*bound.Angle().Radians()), min(c.maxLevel, maxLevel-1))
		if c.levelMod > 1 && level > c.minLevel {
			level -= (level - c.minLevel) % c.levelMod
		}
		// Level zero may need more than four face cells.
		if level > 0 {
			for _, id := range CellIDFromPoint(bound.center).VertexNeighbors(level) {
				c.addCandidate(c.newCandidate(CellFromCellID(id)))
			}
			return
		}
	}
	for face := 0; face < numFaces; face++ {
		c.addCandidate(c.newCandidate(CellFromCellID(CellIDFromFace(face))))
	}
}

func (c *coverer) covering() CellUnion {
	// Cells contained by the region go straight to the result and cells
	// that miss it are dropped, so the queue only holds cells that
	// partially intersect the region.
	c.initialCandidates()
	for c.pq.Len() > 0 {
		cand := heap.Pop(&c.pq).(*candidateEntry).candidate
		numChildren := len(cand.children)
		if cand.cell.Level() < c.minLevel ||
			numChildren == 1 ||
			len(c.result)+numChildren+c.pq.Len() <= c.maxCells {
			for _, child := range cand.children {
				c.addCandidate(child)
			}
			continue
		}
		cand.terminal = true
		c.addCandidate(cand)
	}
	c.result.Normalize()
	return c.result
}

// Covering returns a normalized union of cells covering the region. Its
// cells may be merged above MinLevel or off the LevelMod grid; see
// CellCovering for a covering that honors both.
func (r *RegionCoverer) Covering(region Region) CellUnion {
	c := &coverer{
		minLevel: clampInt(r.MinLevel, 0, maxLevel),
		maxLevel: clampInt(r.MaxLevel, 0, maxLevel),
		levelMod: clampInt(r.LevelMod, 1, 3),
		maxCells: r.MaxCells,
		region:   region,
	}
	c.maxLevel = max(c.minLevel, c.maxLevel)
	return c.covering()
}

// CellCovering returns the covering of the region with every cell at a
// permitted level, sorted along the Hilbert curve.
func (r *RegionCoverer) CellCovering(region Region) CellUnion {
	cu := r.Covering(region)
	return CellUnion(cu.Denormalize(clampInt(r.MinLevel, 0, maxLevel), clampInt(r.LevelMod, 1, 3)))
}

// FloodFill returns all edge connected cells at start's level that may
// intersect the region, found by walking outward from start.
func FloodFill(region Region, start CellID) CellUnion {
	seen := map[CellID]bool{start: true}
	frontier := []CellID{start}
	var output CellUnion
	for len(frontier) > 0 {
		id := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		if !region.MayIntersect(CellFromCellID(id)) {
			continue
		}
		output = append(output, id)
		for _, nbr := range id.EdgeNeighbors() {
			if !seen[nbr] {
				seen[nbr] = true
				frontier = append(frontier, nbr)
			}
		}
	}
	return output
}

// SimpleCovering returns the cells at the given level that may intersect
// a connected region containing start.
func SimpleCovering(region Region, start Point, level int) CellUnion {
	return FloodFill(region, CellIDFromPoint(start).Parent(level))
}
