package dapol

import "testing"

func TestCoord_SiblingParent(t *testing.T) {
	c := Coord{Y: 2, X: 5}
	sib := c.Sibling()
	if sib != (Coord{Y: 2, X: 4}) {
		t.Fatalf("sibling of %v = %v, want (2,4)", c, sib)
	}
	if !c.IsSiblingOf(sib) || !sib.IsSiblingOf(c) {
		t.Fatalf("expected mutual siblinghood between %v and %v", c, sib)
	}
	p := c.Parent()
	if p != (Coord{Y: 3, X: 2}) {
		t.Fatalf("parent of %v = %v, want (3,2)", c, p)
	}
}

func TestCoord_Orientation(t *testing.T) {
	if (Coord{X: 4}).Orientation() != OrientationLeft {
		t.Fatalf("even x should be left")
	}
	if (Coord{X: 5}).Orientation() != OrientationRight {
		t.Fatalf("odd x should be right")
	}
}

func TestCoord_SubtreeBounds(t *testing.T) {
	c := Coord{Y: 3, X: 1}
	lo, hi := c.SubtreeBounds()
	if lo != 8 || hi != 15 {
		t.Fatalf("bounds = [%d,%d], want [8,15]", lo, hi)
	}
}

func TestCoord_BytesFixedSize(t *testing.T) {
	c := Coord{Y: 7, X: 1234}
	if len(c.Bytes()) != coordEncodedLen {
		t.Fatalf("expected %d byte encoding, got %d", coordEncodedLen, len(c.Bytes()))
	}
}
