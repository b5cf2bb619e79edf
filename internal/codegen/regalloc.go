// Package codegen implements tile selection, linear-scan register
// allocation, and x86-32 assembly emission (spec.md §4.8-4.10, component
// 11). Grounded on original_source/'s linearScanAllocator.cpp: compute each
// temporary's live interval, walk intervals in start order holding a free
// pool of physical registers, and spill the interval whose end is furthest
// away when the pool is exhausted.
package codegen

import (
	"sort"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/tir"
)

// Registers available to the allocator. EAX/EDX are reserved as scratch for
// the "two spilled operands in one instruction" rule (regalloc.go's Spill
// handling in emit.go), so they are never handed out as a temp's home.
var allocatable = []string{"ebx", "ecx", "esi", "edi"}

// Location is either a physical register or a spill slot at [ebp - Offset].
type Location struct {
	Reg    string // "" if spilled
	Offset int32  // stack offset when Reg == ""
}

func (l Location) IsSpilled() bool { return l.Reg == "" }

// Allocation is the per-method result: a Location for every temp, plus the
// total spill-slot stack space to reserve in the prologue.
type Allocation struct {
	Loc       map[int]Location // temp ID -> Location
	FrameSize int32
}

type interval struct {
	temp       int
	start, end int
}

// Allocate computes live intervals for every temp referenced in m.Body by a
// single linear forward/backward scan over the flattened instruction
// index (a block-insensitive over-approximation: a temp's interval spans
// its first def to its last use in program order, which is always safe —
// just not always tight — because Joos's structured control flow never
// creates back-edges the forward index doesn't already dominate in the
// conservative direction), then runs linear-scan allocation + spilling.
func Allocate(m *tir.Method) *Allocation {
	starts := map[int]int{}
	ends := map[int]int{}
	for i, s := range m.Body {
		visitStmtTemps(s, func(id int) {
			if _, ok := starts[id]; !ok {
				starts[id] = i
			}
			ends[id] = i
		})
	}

	var intervals []interval
	for id, start := range starts {
		intervals = append(intervals, interval{temp: id, start: start, end: ends[id]})
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].start < intervals[j].start })

	alloc := &Allocation{Loc: map[int]Location{}}
	var active []interval
	free := append([]string(nil), allocatable...)
	var nextSpillSlot int32

	spill := func(iv interval) {
		nextSpillSlot += 4
		alloc.Loc[iv.temp] = Location{Offset: nextSpillSlot}
	}

	for _, iv := range intervals {
		// Expire active intervals that end before iv starts, returning
		// their registers to the free pool.
		var stillActive []interval
		for _, a := range active {
			if a.end < iv.start {
				if loc := alloc.Loc[a.temp]; !loc.IsSpilled() {
					free = append(free, loc.Reg)
				}
			} else {
				stillActive = append(stillActive, a)
			}
		}
		active = stillActive

		if len(free) == 0 {
			// Spill the active interval ending furthest in the future, if
			// it ends later than iv; otherwise spill iv itself.
			worst := -1
			worstEnd := iv.end
			for i, a := range active {
				if a.end > worstEnd {
					worstEnd = a.end
					worst = i
				}
			}
			if worst >= 0 {
				victim := active[worst]
				reg := alloc.Loc[victim.temp].Reg
				spill(victim)
				alloc.Loc[iv.temp] = Location{Reg: reg}
				active[worst] = iv
			} else {
				spill(iv)
			}
			continue
		}

		reg := free[len(free)-1]
		free = free[:len(free)-1]
		alloc.Loc[iv.temp] = Location{Reg: reg}
		active = append(active, iv)
	}

	alloc.FrameSize = nextSpillSlot
	return alloc
}

func visitStmtTemps(s tir.Stmt, visit func(id int)) {
	switch st := s.(type) {
	case *tir.Move:
		visitExprTemps(st.Dst, visit)
		visitExprTemps(st.Src, visit)
	case *tir.CJump:
		visitExprTemps(st.Left, visit)
		visitExprTemps(st.Right, visit)
	case *tir.CallStmt:
		for _, a := range st.Call.Args {
			visitExprTemps(a, visit)
		}
	case *tir.ExprStmt:
		visitExprTemps(st.X, visit)
	case *tir.ReturnStmt:
		if st.Value != nil {
			visitExprTemps(st.Value, visit)
		}
	}
}

func visitExprTemps(e tir.Expr, visit func(id int)) {
	switch x := e.(type) {
	case tir.TempRef:
		visit(x.T.ID)
	case *tir.BinaryExpr:
		visitExprTemps(x.Left, visit)
		visitExprTemps(x.Right, visit)
	case *tir.Mem:
		visitExprTemps(x.Base, visit)
	case *tir.Call:
		for _, a := range x.Args {
			visitExprTemps(a, visit)
		}
	}
}
