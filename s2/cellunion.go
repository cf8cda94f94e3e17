package s2

import (
	"slices"
	"sort"
)

// A CellUnion is a collection of CellIDs.
//
// It is normalized if it is sorted, and does not contain redundancy.
// Specifically, it may not contain the same CellID twice, nor a CellID that is contained by another,
// nor the four sibling CellIDs that are children of a single higher level CellID.
type CellUnion []CellID

// Normalize sorts the union, drops cells covered by other cells and
// replaces any four complete siblings by their parent.
func (cu *CellUnion) Normalize() {
	slices.Sort(*cu)

	output := make([]CellID, 0, len(*cu)) // the list of accepted cells
	// Loop invariant: output is a sorted list of cells with no redundancy.
	for _, ci := range *cu {
		// Ignore this cell if it is contained by the previous one.
		// The ordering of the cells implies containment (but not the
		// converse), and output has no redundancy, so only the last
		// accepted cell needs checking.
		if len(output) > 0 && output[len(output)-1].Contains(ci) {
			continue
		}

		// Discard any previously accepted cells contained by this one.
		// This can only be a contiguous trailing subsequence.
		j := len(output) - 1 // last index to keep
		for j >= 0 {
			if !ci.Contains(output[j]) {
				break
			}
			j--
		}
		output = output[:j+1]

		// See if the last three cells plus this one can be collapsed.
		// Collapsing can cascade into earlier cells, hence the loop.
		for len(output) >= 3 {
			fin := output[len(output)-3:]

			// fast XOR test; a necessary but not sufficient condition
			if fin[0]^fin[1]^fin[2]^ci != 0 {
				break
			}

			// Exact test: the bits above the child position must agree.
			mask := CellID(ci.lsb() << 1)
			mask = ^(mask + mask<<1)
			should := ci & mask
			if (fin[0]&mask != should) || (fin[1]&mask != should) || (fin[2]&mask != should) || ci.IsFace() {
				break
			}

			output = output[:len(output)-3]
			ci = ci.ImmediateParent() // checked !ci.IsFace above
		}
		output = append(output, ci)
	}
	*cu = output
}

// IsNormalized reports whether the union is sorted, free of overlap and
// free of complete sibling groups.
func (cu CellUnion) IsNormalized() bool {
	for i, id := range cu {
		if !id.IsValid() {
			return false
		}
		if i == 0 {
			continue
		}
		if cu[i-1].RangeMax() >= id.RangeMin() {
			return false
		}
		if i >= 3 && areSiblings(cu[i-3], cu[i-2], cu[i-1], id) {
			return false
		}
	}
	return true
}

// IsDisjoint reports whether the union is sorted and no two cells overlap.
func (cu CellUnion) IsDisjoint() bool {
	for i := 1; i < len(cu); i++ {
		if cu[i-1].RangeMax() >= cu[i].RangeMin() {
			return false
		}
	}
	return true
}

func areSiblings(a, b, c, d CellID) bool {
	if (a ^ b ^ c) != d {
		return false
	}
	mask := CellID(d.lsb() << 1)
	mask = ^(mask + (mask << 1))
	idMasked := d & mask
	return a&mask == idMasked && b&mask == idMasked && c&mask == idMasked && !d.IsFace()
}

// Denormalize expands the union so that every cell has a level of at
// least minLevel and (level - minLevel) is a multiple of levelMod.
func (cu CellUnion) Denormalize(minLevel, levelMod int) []CellID {
	output := make([]CellID, 0, len(cu))
	for _, id := range cu {
		level := id.Level()
		newLevel := max(minLevel, level)
		if levelMod > 1 {
			// Round up so that (newLevel - minLevel) is a multiple
			// of levelMod. (Note that maxLevel is a multiple
			// of 1, 2, and 3.)
			newLevel += (maxLevel - (newLevel - minLevel)) % levelMod
			newLevel = min(maxLevel, newLevel)
		}
		if newLevel == level {
			output = append(output, id)
		} else {
			end := id.ChildEndAtLevel(newLevel)
			for id = id.ChildBeginAtLevel(newLevel); id != end; id = id.Next() {
				output = append(output, id)
			}
		}
	}
	return output
}

// ContainsCellID reports whether the normalized union contains id.
func (cu CellUnion) ContainsCellID(id CellID) bool {
	// Each cell occupies a linear span of the curve, and the union is
	// sorted, so only the two cells surrounding id need checking.
	idx := sort.Search(len(cu), func(i int) bool { return cu[i] >= id })
	if idx < len(cu) && cu[idx].RangeMin() <= id {
		return true
	}
	return idx > 0 && cu[idx-1].RangeMax() >= id
}

// IntersectsCellID reports whether the normalized union intersects id.
func (cu CellUnion) IntersectsCellID(id CellID) bool {
	idx := sort.Search(len(cu), func(i int) bool { return cu[i] >= id })
	if idx < len(cu) && cu[idx].RangeMin() <= id.RangeMax() {
		return true
	}
	return idx > 0 && cu[idx-1].RangeMax() >= id.RangeMin()
}

// LeafCellsCovered returns the number of leaf cells covered by the union.
func (cu CellUnion) LeafCellsCovered() int64 {
	var n int64
	for _, c := range cu {
		n += 1 << uint64((maxLevel-int64(c.Level()))<<1)
	}
	return n
}
