package context

import (
	"testing"

	"github.com/valley-lang/valleyc/types"
)

func TestGlobalIndicesStartAtZero(t *testing.T) {
	reg := types.NewRegistry()
	g := NewGlobal()
	a, err := g.CreateIdentifier("a", reg.Int(), false, false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.CreateIdentifier("b", reg.Int(), false, false)
	if err != nil {
		t.Fatal(err)
	}
	if a.Index != 0 || b.Index != 1 {
		t.Fatalf("indices = %d, %d, want 0, 1", a.Index, b.Index)
	}
	if a.Frame != FrameGlobal {
		t.Fatalf("Frame = %v, want FrameGlobal", a.Frame)
	}
}

func TestLocalIndicesStartAtOneAndContinueAcrossBlocks(t *testing.T) {
	reg := types.NewRegistry()
	g := NewGlobal()
	fn := g.EnterFunction()
	body := fn.EnterFunctionBody()

	x, err := body.CreateIdentifier("x", reg.Int(), false, false)
	if err != nil {
		t.Fatal(err)
	}
	if x.Index != 1 {
		t.Fatalf("first local index = %d, want 1", x.Index)
	}

	inner := body.EnterScope()
	y, err := inner.CreateIdentifier("y", reg.Int(), false, false)
	if err != nil {
		t.Fatal(err)
	}
	if y.Index != 2 {
		t.Fatalf("nested block's first index = %d, want 2 (continuing the counter)", y.Index)
	}
}

func TestParamIndicesStartAtMinusOneDecrementing(t *testing.T) {
	reg := types.NewRegistry()
	g := NewGlobal()
	fn := g.EnterFunction()
	p0, err := fn.CreateParam("a", reg.Int())
	if err != nil {
		t.Fatal(err)
	}
	p1, err := fn.CreateParam("b", reg.Int())
	if err != nil {
		t.Fatal(err)
	}
	if p0.Index != -1 || p1.Index != -2 {
		t.Fatalf("param indices = %d, %d, want -1, -2", p0.Index, p1.Index)
	}
}

func TestHoistedDuplicateRejected(t *testing.T) {
	reg := types.NewRegistry()
	g := NewGlobal()
	if _, err := g.CreateIdentifier("x", reg.Int(), false, false); err != nil {
		t.Fatal(err)
	}
	inner := g.EnterScope()
	if _, err := inner.CreateIdentifier("x", reg.Int(), false, false); err == nil {
		t.Fatalf("declaring x in a nested scope when it is visible in an enclosing scope should fail")
	}
}

func TestFindWalksUpParentChain(t *testing.T) {
	reg := types.NewRegistry()
	g := NewGlobal()
	if _, err := g.CreateIdentifier("x", reg.Int(), false, false); err != nil {
		t.Fatal(err)
	}
	inner := g.EnterScope().EnterScope()
	info, ok := inner.Find("x")
	if !ok {
		t.Fatalf("Find should locate x through the parent chain")
	}
	if info.Frame != FrameGlobal {
		t.Fatalf("Frame = %v, want FrameGlobal", info.Frame)
	}
}

func TestLeaveScopeReturnsParent(t *testing.T) {
	g := NewGlobal()
	child := g.EnterScope()
	if child.LeaveScope() != g {
		t.Fatalf("LeaveScope() should return the parent scope")
	}
}
