package s2

import (
	"math/rand"
	"slices"
	"testing"
)

func TestCellUnionNormalize(t *testing.T) {
	face1 := CellIDFromFace(1)
	children := face1.Children()
	grandchild := children[2].Child(3)

	tests := []struct {
		name string
		in   CellUnion
		want CellUnion
	}{
		{"empty", CellUnion{}, CellUnion{}},
		{"duplicates", CellUnion{face1, face1}, CellUnion{face1}},
		{"contained", CellUnion{grandchild, children[2], children[0]}, CellUnion{children[0], children[2]}},
		{"siblings", CellUnion{children[3], children[1], children[0], children[2]}, CellUnion{face1}},
		{
			"cascade",
			CellUnion{
				children[0], children[1], children[3],
				children[2].Child(0), children[2].Child(1), children[2].Child(2), children[2].Child(3),
			},
			CellUnion{face1},
		},
		{"faces stay", CellUnion{CellIDFromFace(0), CellIDFromFace(1), CellIDFromFace(2), CellIDFromFace(3)},
			CellUnion{CellIDFromFace(0), CellIDFromFace(1), CellIDFromFace(2), CellIDFromFace(3)}},
	}
	for _, test := range tests {
		got := slices.Clone(test.in)
		got.Normalize()
		if !slices.Equal(got, test.want) {
			t.Errorf("%s: Normalize() = %v, want %v", test.name, got, test.want)
		}
		if !got.IsNormalized() {
			t.Errorf("%s: %v.IsNormalized() = false", test.name, got)
		}
	}

	if (CellUnion{children[0], children[1], children[2], children[3]}).IsNormalized() {
		t.Errorf("four siblings should not be normalized")
	}
	if !(CellUnion{children[0], children[1], children[2], children[3]}).IsDisjoint() {
		t.Errorf("four siblings are disjoint")
	}
	if (CellUnion{children[1], children[0]}).IsDisjoint() {
		t.Errorf("an unsorted union is not disjoint")
	}
	if (CellUnion{face1, grandchild}).IsDisjoint() {
		t.Errorf("a cell and its descendant overlap")
	}
}

func TestCellUnionNormalizeRandom(t *testing.T) {
	for iter := 0; iter < 200; iter++ {
		var in CellUnion
		for i := 0; i < 20; i++ {
			id := randomCellIDForLevel(rand.Intn(9))
			in = append(in, id)
			if oneIn(3) {
				// Add all four children to exercise collapsing.
				if !id.IsLeaf() {
					ch := id.Children()
					in = append(in, ch[:]...)
				}
			}
		}
		got := slices.Clone(in)
		got.Normalize()
		if !got.IsNormalized() {
			t.Fatalf("Normalize(%v) = %v is not normalized", in, got)
		}
		for _, id := range in {
			if !got.ContainsCellID(id) {
				t.Errorf("normalized union lost %v", id)
			}
		}
		var leaves int64
		for _, id := range got {
			leaves += int64(1) << uint(2*(maxLevel-id.Level()))
		}
		if got.LeafCellsCovered() != leaves {
			t.Errorf("LeafCellsCovered() = %d, want %d", got.LeafCellsCovered(), leaves)
		}
	}
}

func TestCellUnionContainsIntersects(t *testing.T) {
	face0 := CellIDFromFace(0)
	cu := CellUnion{face0.Child(1), CellIDFromFace(4).ChildBeginAtLevel(5)}
	cu.Normalize()

	tests := []struct {
		id                   CellID
		contains, intersects bool
	}{
		{face0, false, true},
		{face0.Child(1), true, true},
		{face0.Child(1).ChildBeginAtLevel(maxLevel), true, true},
		{face0.Child(1).ChildEndAtLevel(maxLevel).Prev(), true, true},
		{face0.Child(0), false, false},
		{face0.Child(2), false, false},
		{CellIDFromFace(4), false, true},
		{CellIDFromFace(4).ChildBeginAtLevel(5).Next(), false, false},
		{CellIDFromFace(5), false, false},
	}
	for _, test := range tests {
		if got := cu.ContainsCellID(test.id); got != test.contains {
			t.Errorf("%v.ContainsCellID(%v) = %t, want %t", cu, test.id, got, test.contains)
		}
		if got := cu.IntersectsCellID(test.id); got != test.intersects {
			t.Errorf("%v.IntersectsCellID(%v) = %t, want %t", cu, test.id, got, test.intersects)
		}
	}
}

func TestCellUnionDenormalize(t *testing.T) {
	face2 := CellIDFromFace(2)
	cu := CellUnion{face2.Child(0), face2.Child(1).ChildBeginAtLevel(3)}

	got := cu.Denormalize(2, 1)
	if len(got) != 5 {
		t.Fatalf("Denormalize(2, 1) returned %d cells, want 5", len(got))
	}
	for _, id := range got[:4] {
		if id.Level() != 2 || !face2.Child(0).Contains(id) {
			t.Errorf("Denormalize(2, 1) produced %v", id)
		}
	}
	if got[4] != cu[1] {
		t.Errorf("Denormalize(2, 1) changed %v into %v", cu[1], got[4])
	}

	// With levelMod 2 the level 3 cell must move to level 4.
	got = cu.Denormalize(2, 2)
	if len(got) != 8 {
		t.Fatalf("Denormalize(2, 2) returned %d cells, want 8", len(got))
	}
	for _, id := range got[4:] {
		if id.Level() != 4 {
			t.Errorf("Denormalize(2, 2) produced %v at level %d, want 4", id, id.Level())
		}
	}
	if CellUnion(got).LeafCellsCovered() != cu.LeafCellsCovered() {
		t.Errorf("Denormalize changed the covered area")
	}
}
