package bytecode

import (
	"sort"

	"github.com/wasmtiny/wasmtiny/wasm"
	"github.com/wasmtiny/wasmtiny/wasm/operators"
)

// BreakKind distinguishes the two shapes a resolved branch destination can
// take: falling out of a block/if (BlockEnd) or re-entering a loop
// (LoopStart).
type BreakKind int

const (
	BlockEnd BreakKind = iota
	LoopStart
)

// BreakDestination is the result of resolving a branch at a given static
// depth: where execution resumes, and how many operand-stack values must
// remain above the target region's base once the branch is taken.
type BreakDestination struct {
	Kind   BreakKind
	Target int // index into Cache.Instrs of the first instruction to resume at
	Arity  int // BlockEnd: the region's result arity. LoopStart: always 0 in the MVU block-type encoding.
}

type endEntry struct {
	open int
	end  int
}

// Cache is the precomputed structure described by the bytecode pre-pass:
// the decoded opcode vector plus three O(1) lookups (BreakTo, SkipToElse,
// SkipToEnd) built by a single reverse walk over that vector.
type Cache struct {
	Instrs []Instr

	parents  map[int]int
	ends     []endEntry // sorted ascending by open index
	loops    map[int]int
	elses    map[int]int
	endArity map[int]int

	MaxDepth int
}

// New decodes a function body's opcode bytes and builds its bytecode
// cache. outerResultArity is the function's own result count, used as the
// implicit outermost region's arity (branches at the function's own depth
// resolve to it, same as any other BlockEnd).
func New(code []byte, outerResultArity int) (*Cache, error) {
	instrs, err := decodeInstrs(code)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		Instrs:   instrs,
		parents:  make(map[int]int),
		loops:    make(map[int]int),
		elses:    make(map[int]int),
		endArity: make(map[int]int),
	}

	type frame struct {
		end     int
		elsePos int // -1 if no else seen yet
	}

	// The decoded function body has its closing end stripped (see
	// wasm.FunctionBody.Code), so the outermost region's frame is seeded
	// directly rather than materializing from a real End instruction; its
	// end position is one past the last decoded instruction.
	control := []frame{{end: len(instrs), elsePos: -1}}
	c.MaxDepth = 1

	for i := len(instrs) - 1; i >= 0; i-- {
		switch instrs[i].Op {
		case operators.End:
			last := control[len(control)-1]
			c.parents[i] = last.end
			c.ends = append(c.ends, endEntry{i, last.end})
			control = append(control, frame{end: i, elsePos: -1})
			if len(control) > c.MaxDepth {
				c.MaxDepth = len(control)
			}

		case operators.Loop:
			top := control[len(control)-1]
			control = control[:len(control)-1]
			c.ends = append(c.ends, endEntry{i, top.end})
			c.loops[top.end] = i

		case operators.Block:
			top := control[len(control)-1]
			control = control[:len(control)-1]
			c.ends = append(c.ends, endEntry{i, top.end})
			c.endArity[top.end] = resultArity(instrs[i].BlockType)

		case operators.If:
			top := control[len(control)-1]
			control = control[:len(control)-1]
			if top.elsePos >= 0 {
				c.elses[i] = top.elsePos
			}
			c.ends = append(c.ends, endEntry{i, top.end})
			c.endArity[top.end] = resultArity(instrs[i].BlockType)

		case operators.Else:
			control[len(control)-1].elsePos = i
		}
	}

	if len(control) != 1 {
		return nil, MalformedBodyError{Reason: "control stack did not reduce to exactly the implicit function frame"}
	}
	// The implicit outer frame has no opening instruction of its own (the
	// function body starts directly in it), so its open key is seeded at -1
	// rather than 0: a real Block/Loop/If at instruction index 0 already
	// registers its own entry at open=0, and a second entry there would tie
	// under lookupEnd's search, picked arbitrarily by sort.Slice.
	c.ends = append(c.ends, endEntry{-1, control[0].end})
	c.endArity[control[0].end] = outerResultArity

	sort.Slice(c.ends, func(i, j int) bool { return c.ends[i].open < c.ends[j].open })

	return c, nil
}

func resultArity(bt wasm.BlockType) int {
	if bt == wasm.BlockTypeEmpty {
		return 0
	}
	return 1
}

// lookupEnd finds the end index of the innermost structured region
// enclosing instruction index from: the entry with the greatest open index
// not exceeding from.
func (c *Cache) lookupEnd(from int) int {
	i := sort.Search(len(c.ends), func(i int) bool { return c.ends[i].open > from })
	return c.ends[i-1].end
}

// BreakTo resolves a branch at depth taken from instruction index from.
func (c *Cache) BreakTo(from int, depth int) BreakDestination {
	end := c.lookupEnd(from)
	for i := 0; i < depth; i++ {
		end = c.parents[end]
	}
	if loopStart, ok := c.loops[end]; ok {
		return BreakDestination{Kind: LoopStart, Target: loopStart + 1, Arity: 0}
	}
	return BreakDestination{Kind: BlockEnd, Target: end + 1, Arity: c.endArity[end]}
}

// SkipToElse returns the instruction index to resume at when an if's
// condition is false: just past the matching else, or just past the
// matching end when there is none.
func (c *Cache) SkipToElse(ifIndex int) int {
	if el, ok := c.elses[ifIndex]; ok {
		return el + 1
	}
	return c.SkipToEnd(ifIndex)
}

// SkipToEnd returns the instruction index just past the structured
// region's matching end, from any instruction index inside it (used when
// execution falls through an else marker belonging to the taken if-branch).
func (c *Cache) SkipToEnd(from int) int {
	return c.lookupEnd(from) + 1
}
