// Package context implements Valley's nested identifier scoping, grounded
// on the original compiler's compiler_context.hpp/compiler_context.cpp
// (CompilerContext, IdentifierLookup family) and generalized from
// lib/analyzer/context.go's Context/Variable/Function tables.
package context

import (
	"fmt"

	"github.com/valley-lang/valleyc/types"
)

// Frame names which numbering scheme a Context assigns to new identifiers.
type Frame int

const (
	// FrameGlobal identifiers get a monotonically increasing index shared
	// across the whole compilation unit, starting at 0.
	FrameGlobal Frame = iota
	// FrameLocal identifiers get an index that starts at 1 in the
	// outermost function scope and keeps counting up through nested
	// blocks without resetting, matching createIdentifier's local branch.
	FrameLocal
	// FrameParam identifiers get a decrementing index starting at -1,
	// matching createParam.
	FrameParam
)

// Info describes one resolved identifier: its declared type, constness,
// whether it was declared static, and the (frame, index) pair that locates
// its storage slot.
type Info struct {
	Name   string
	Type   *types.Type
	Const  bool
	Static bool
	Frame  Frame
	Index  int
}

// Context is one lexical scope. The chain of Parent pointers reaches back
// to the global scope; Find walks it outward the way
// IdentifierLookup::find does in the reference compiler.
type Context struct {
	parent      *Context
	frame       Frame
	identifiers map[string]*Info

	globalCounter *int // shared by every Context in the tree
	localCounter  int  // next local index; inherited from the enclosing function scope
	paramCounter  int  // next param index; only meaningful when frame == FrameParam
}

// NewGlobal creates the root scope of a compilation unit.
func NewGlobal() *Context {
	zero := 0
	return &Context{
		frame:         FrameGlobal,
		identifiers:   make(map[string]*Info),
		globalCounter: &zero,
	}
}

// EnterScope returns a new block-local child scope, continuing the
// enclosing function's local-index counter the way nested blocks share one
// running counter in the reference compiler rather than restarting at 1.
func (c *Context) EnterScope() *Context {
	return &Context{
		parent:        c,
		frame:         FrameLocal,
		identifiers:   make(map[string]*Info),
		globalCounter: c.globalCounter,
		localCounter:  c.localCounter,
	}
}

// EnterFunctionBody returns the local scope for a function's body,
// continuing directly from a parameter frame. Unlike EnterScope, this
// starts the local counter at 1 rather than inheriting it, matching
// createIdentifier's rule that a function's outermost local scope begins
// numbering at 1.
func (c *Context) EnterFunctionBody() *Context {
	return &Context{
		parent:        c,
		frame:         FrameLocal,
		identifiers:   make(map[string]*Info),
		globalCounter: c.globalCounter,
		localCounter:  1,
	}
}

// EnterFunction returns a new parameter frame for a function declaration's
// parameter list, with its own decrementing counter starting at -1.
func (c *Context) EnterFunction() *Context {
	return &Context{
		parent:        c,
		frame:         FrameParam,
		identifiers:   make(map[string]*Info),
		globalCounter: c.globalCounter,
		paramCounter:  -1,
	}
}

// LeaveScope returns the enclosing scope. EnterScope/EnterFunction never
// mutate their parent, so leaving a scope is just following Parent — there
// is nothing to unwind.
func (c *Context) LeaveScope() *Context {
	return c.parent
}

// Find looks up name in this scope, then each enclosing scope in turn,
// matching IdentifierLookup::find's walk up the parent chain.
func (c *Context) Find(name string) (*Info, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if info, ok := cur.identifiers[name]; ok {
			return info, true
		}
	}
	return nil, false
}

// visibleAnywhere reports whether name is already declared in this scope
// or any enclosing one — the "hoisted duplicate" rule: a declaration is
// rejected if it collides with anything visible, not just what is local.
func (c *Context) visibleAnywhere(name string) bool {
	_, ok := c.Find(name)
	return ok
}

// CreateIdentifier declares name in the current scope with the next index
// for this scope's Frame. It fails if name is already visible in this
// scope or any enclosing one.
func (c *Context) CreateIdentifier(name string, t *types.Type, isConst bool, isStatic bool) (*Info, error) {
	if c.frame == FrameParam {
		return nil, fmt.Errorf("cannot declare variable %q in a parameter frame", name)
	}
	if c.visibleAnywhere(name) {
		return nil, fmt.Errorf("identifier %q is already declared", name)
	}
	var idx int
	switch c.frame {
	case FrameGlobal:
		idx = *c.globalCounter
		*c.globalCounter++
	case FrameLocal:
		idx = c.localCounter
		c.localCounter++
		for p := c.parent; p != nil && p.frame == FrameLocal; p = p.parent {
			p.localCounter = c.localCounter
		}
	}
	info := &Info{Name: name, Type: t, Const: isConst, Static: isStatic, Frame: c.frame, Index: idx}
	c.identifiers[name] = info
	return info, nil
}

// CreateParam declares a function parameter in a FrameParam scope, using
// the decrementing counter that starts at -1.
func (c *Context) CreateParam(name string, t *types.Type) (*Info, error) {
	if c.frame != FrameParam {
		return nil, fmt.Errorf("cannot declare parameter %q outside a parameter frame", name)
	}
	if c.visibleAnywhere(name) {
		return nil, fmt.Errorf("identifier %q is already declared", name)
	}
	idx := c.paramCounter
	c.paramCounter--
	info := &Info{Name: name, Type: t, Const: false, Frame: FrameParam, Index: idx}
	c.identifiers[name] = info
	return info, nil
}
