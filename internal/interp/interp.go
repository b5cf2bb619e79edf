// Package interp is the optional TIR interpreter of spec.md §6: a
// reference implementation that executes canonicalized TIR directly
// instead of compiling it to assembly, sharing the same fixed runtime ABI
// (__malloc, __exception, __debexit,
// NATIVEjava.io.OutputStream.nativeWrite). It exists solely for tests that
// want to assert a program's runtime behavior without assembling and
// linking it, replacing the teacher's tree-walking DWScript evaluator
// (internal/interp's old occupant, `internal/evaluator`-style
// statement/expression visitor) with one that walks tir.Stmt/tir.Expr
// instead of ast.Stmt/ast.Expr.
package interp

import (
	"fmt"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/tir"
)

const wordSize = int32(4)

// Heap is a flat byte-addressed memory a Joos object graph lives in,
// standing in for the __malloc-backed heap the assembled program would
// use. Addresses are byte offsets (matching internal/codegen's real x86-32
// addressing and the builder's byte-offset field/array lowering); Load and
// Store translate to the backing word slice internally.
type Heap struct {
	words []int32
}

// NewHeap allocates a heap with capacity for roughly byteCapacity bytes;
// it grows automatically past that, same as the slice it wraps.
func NewHeap(byteCapacity int) *Heap {
	return &Heap{words: make([]int32, 1, byteCapacity/int(wordSize)+1)} // word 0 is reserved as the null address
}

// Alloc reserves n bytes and returns the base address, mirroring
// __malloc's contract (spec.md §6): every allocation is zero-initialized.
// n must be a multiple of wordSize.
func (h *Heap) Alloc(n int32) int32 {
	base := int32(len(h.words)) * wordSize
	h.words = append(h.words, make([]int32, n/wordSize)...)
	return base
}

func (h *Heap) Load(addr int32) (int32, error) {
	idx := addr / wordSize
	if addr <= 0 || addr%wordSize != 0 || int(idx) >= len(h.words) {
		return 0, fmt.Errorf("NullPointerException: load at address %d", addr)
	}
	return h.words[idx], nil
}

func (h *Heap) Store(addr, v int32) error {
	idx := addr / wordSize
	if addr <= 0 || addr%wordSize != 0 || int(idx) >= len(h.words) {
		return fmt.Errorf("NullPointerException: store at address %d", addr)
	}
	h.words[idx] = v
	return nil
}

// NativeWrite is the hook NATIVEjava.io.OutputStream.nativeWrite calls
// through to; tests supply one to capture bytes written by the program
// under interpretation, matching the real ABI's one fixed native.
type NativeWrite func(b byte)

// Interpreter executes one linked tir.Program's methods by label.
type Interpreter struct {
	methods map[string]*tir.Method
	Heap    *Heap
	Write   NativeWrite

	// labels assigns every NameRef (a string literal or a class's
	// dispatch-vector label) a stable pseudo-address on first use, standing
	// in for the real link-time address the assembler would give it. Two
	// evaluations of the same label always agree, which is all instanceof's
	// and `new`'s dispatch-vector comparisons need.
	labels        map[string]int32
	nextLabelAddr int32
}

// New builds an Interpreter over prog. heapWords is passed to NewHeap as
// the heap's initial capacity in bytes;
// write receives bytes passed to the fixed nativeWrite ABI call (nil
// discards them).
func New(prog *tir.Program, heapWords int, write NativeWrite) *Interpreter {
	i := &Interpreter{
		methods:       map[string]*tir.Method{},
		Heap:          NewHeap(heapWords),
		Write:         write,
		labels:        map[string]int32{},
		nextLabelAddr: 1 << 20, // far above any real heap address, so labels never alias an object
	}
	for _, m := range prog.Methods {
		i.methods[m.Label] = m
	}
	return i
}

// labelValue returns label's pseudo-address, assigning one on first use.
func (i *Interpreter) labelValue(label string) int32 {
	if v, ok := i.labels[label]; ok {
		return v
	}
	v := i.nextLabelAddr
	i.nextLabelAddr += wordSize
	i.labels[label] = v
	return v
}

// frame is one call's temporary map and instruction pointer.
type frame struct {
	temps map[int]int32
	pc    int
}

func (f *frame) get(t tir.Temp) int32 { return f.temps[t.ID] }
func (f *frame) set(t tir.Temp, v int32) { f.temps[t.ID] = v }

// Call invokes the method at label with args (args[0] is the receiver for
// an instance method, per the builder's "temp 0 is always `this`"
// convention) and returns its result (0 for a void return).
func (i *Interpreter) Call(label string, args []int32) (int32, error) {
	m, ok := i.methods[label]
	if !ok {
		return 0, fmt.Errorf("interp: no TIR method registered for label %q (native methods execute outside the interpreter)", label)
	}

	f := &frame{temps: map[int]int32{}}
	for idx, v := range args {
		f.temps[idx] = v
	}

	labels := map[string]int{}
	for idx, s := range m.Body {
		if ls, ok := s.(*tir.LabelStmt); ok {
			labels[ls.Name] = idx
		}
	}

	for f.pc < len(m.Body) {
		s := m.Body[f.pc]
		switch st := s.(type) {
		case *tir.LabelStmt:
			f.pc++
		case *tir.Jump:
			target, ok := labels[st.Target]
			if !ok {
				return 0, fmt.Errorf("interp: unknown jump target %q", st.Target)
			}
			f.pc = target
		case *tir.CJump:
			l, err := i.eval(f, st.Left)
			if err != nil {
				return 0, err
			}
			r, err := i.eval(f, st.Right)
			if err != nil {
				return 0, err
			}
			takeTrue, err := compare(st.Op, l, r)
			if err != nil {
				return 0, err
			}
			targetLabel := st.IfFalse
			if takeTrue {
				targetLabel = st.IfTrue
			}
			target, ok := labels[targetLabel]
			if !ok {
				return 0, fmt.Errorf("interp: unknown branch target %q", targetLabel)
			}
			f.pc = target
		case *tir.Move:
			v, err := i.eval(f, st.Src)
			if err != nil {
				return 0, err
			}
			if err := i.store(f, st.Dst, v); err != nil {
				return 0, err
			}
			f.pc++
		case *tir.CallStmt:
			if _, err := i.evalCall(f, st.Call); err != nil {
				return 0, err
			}
			f.pc++
		case *tir.ExprStmt:
			if _, err := i.eval(f, st.X); err != nil {
				return 0, err
			}
			f.pc++
		case *tir.ReturnStmt:
			if st.Value == nil {
				return 0, nil
			}
			return i.eval(f, st.Value)
		default:
			return 0, fmt.Errorf("interp: unsupported statement %T", s)
		}
	}
	return 0, nil
}

func (i *Interpreter) store(f *frame, dst tir.Expr, v int32) error {
	switch d := dst.(type) {
	case tir.TempRef:
		f.set(d.T, v)
		return nil
	case *tir.Mem:
		base, err := i.eval(f, d.Base)
		if err != nil {
			return err
		}
		return i.Heap.Store(base+d.Offset, v)
	default:
		return fmt.Errorf("interp: unsupported assignment target %T", dst)
	}
}

func (i *Interpreter) eval(f *frame, e tir.Expr) (int32, error) {
	switch x := e.(type) {
	case tir.Const:
		return x.Value, nil
	case tir.TempRef:
		return f.get(x.T), nil
	case tir.NameRef:
		return i.labelValue(x.Label), nil
	case *tir.BinaryExpr:
		l, err := i.eval(f, x.Left)
		if err != nil {
			return 0, err
		}
		r, err := i.eval(f, x.Right)
		if err != nil {
			return 0, err
		}
		return evalBinary(x.Op, l, r)
	case *tir.Mem:
		base, err := i.eval(f, x.Base)
		if err != nil {
			return 0, err
		}
		return i.Heap.Load(base + x.Offset)
	case *tir.Call:
		return i.evalCall(f, x)
	default:
		return 0, fmt.Errorf("interp: unsupported expression %T", e)
	}
}

func (i *Interpreter) evalCall(f *frame, call *tir.Call) (int32, error) {
	args := make([]int32, len(call.Args))
	for idx, a := range call.Args {
		v, err := i.eval(f, a)
		if err != nil {
			return 0, err
		}
		args[idx] = v
	}
	switch call.Label {
	case "NATIVEjava.io.OutputStream.nativeWrite":
		if i.Write != nil && len(args) > 0 {
			i.Write(byte(args[len(args)-1]))
		}
		return 0, nil
	case "__malloc":
		if len(args) == 0 {
			return 0, fmt.Errorf("interp: __malloc called with no size argument")
		}
		return i.Heap.Alloc(args[0]), nil
	}
	return i.Call(call.Label, args)
}

func evalBinary(op tir.BinOp, l, r int32) (int32, error) {
	switch op {
	case tir.Add:
		return l + r, nil
	case tir.Sub:
		return l - r, nil
	case tir.Mul:
		return l * r, nil
	case tir.Div:
		if r == 0 {
			return 0, fmt.Errorf("ArithmeticException: division by zero")
		}
		return l / r, nil
	case tir.Mod:
		if r == 0 {
			return 0, fmt.Errorf("ArithmeticException: division by zero")
		}
		return l % r, nil
	case tir.And:
		return boolToInt(l != 0 && r != 0), nil
	case tir.Or:
		return boolToInt(l != 0 || r != 0), nil
	case tir.Lt, tir.Le, tir.Gt, tir.Ge, tir.Eq, tir.Ne:
		ok, err := compare(op, l, r)
		return boolToInt(ok), err
	default:
		return 0, fmt.Errorf("interp: unsupported binary op %v", op)
	}
}

func compare(op tir.BinOp, l, r int32) (bool, error) {
	switch op {
	case tir.Lt:
		return l < r, nil
	case tir.Le:
		return l <= r, nil
	case tir.Gt:
		return l > r, nil
	case tir.Ge:
		return l >= r, nil
	case tir.Eq:
		return l == r, nil
	case tir.Ne:
		return l != r, nil
	default:
		return false, fmt.Errorf("interp: %v is not a comparison op", op)
	}
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
