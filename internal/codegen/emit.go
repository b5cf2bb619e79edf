package codegen

import (
	"fmt"
	"strings"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/tir"
)

// Emitter produces NASM-syntax x86-32 assembly text for one linked
// program. It links against the fixed runtime ABI of spec.md §6:
// __malloc, __exception, __debexit, and
// NATIVEjava.io.OutputStream.nativeWrite.
type Emitter struct {
	sb strings.Builder
}

func NewEmitter() *Emitter { return &Emitter{} }

// String returns the assembled output so far.
func (e *Emitter) String() string { return e.sb.String() }

func (e *Emitter) line(format string, args ...any) {
	fmt.Fprintf(&e.sb, format+"\n", args...)
}

// EmitProgram emits the full assembly file: externs, data section (class
// dispatch vectors + string literals), and a single text section holding
// every method.
func (e *Emitter) EmitProgram(p *tir.Program, strings map[string]string) {
	e.line("; generated by the Joos ahead-of-time compiler; do not edit by hand")
	e.line("extern __malloc")
	e.line("extern __exception")
	e.line("extern __debexit")
	e.line("extern NATIVEjava.io.OutputStream.nativeWrite")
	e.line("")
	e.line("section .data")
	for _, cls := range p.Classes {
		e.line("%s:", cls.Label)
		for _, slot := range cls.DispatchVector {
			if slot == "" {
				e.line("    dd 0")
				continue
			}
			e.line("    dd %s", slot)
		}
	}
	for label, s := range strings {
		e.line("%s:", label)
		e.line("    dd %d", len(s))
		for _, ch := range s {
			e.line("    dd %d", int32(ch))
		}
	}
	e.line("")
	e.line("section .text")
	for _, m := range p.Methods {
		e.emitMethod(m)
	}
}

func (e *Emitter) emitMethod(m *tir.Method) {
	alloc := Allocate(m)
	e.line("global %s", m.Label)
	e.line("%s:", m.Label)
	e.line("    push ebp")
	e.line("    mov ebp, esp")
	if alloc.FrameSize > 0 {
		e.line("    sub esp, %d", alloc.FrameSize)
	}

	for _, s := range m.Body {
		e.emitStmt(s, alloc)
	}

	e.line(".epilogue:")
	e.line("    mov esp, ebp")
	e.line("    pop ebp")
	e.line("    ret")
	e.line("")
}

func sanitizeLabel(s string) string {
	return strings.NewReplacer("#", "_", ".", "_").Replace(s)
}

func (e *Emitter) emitStmt(s tir.Stmt, a *Allocation) {
	switch st := s.(type) {
	case *tir.LabelStmt:
		e.line("%s:", st.Name)
	case *tir.Jump:
		e.line("    jmp %s", st.Target)
	case *tir.CJump:
		e.emitCompareAndBranch(st, a)
	case *tir.Move:
		e.emitMove(st.Dst, st.Src, a)
	case *tir.CallStmt:
		e.emitCall(st.Call, a)
	case *tir.ExprStmt:
		e.emitExprDiscard(st.X, a)
	case *tir.ReturnStmt:
		if st.Value != nil {
			e.loadInto("eax", st.Value, a)
		}
		e.line("    jmp .epilogue")
	}
}

func (e *Emitter) emitExprDiscard(x tir.Expr, a *Allocation) {
	if call, ok := x.(*tir.Call); ok {
		e.emitCall(call, a)
	}
}

func (e *Emitter) emitCompareAndBranch(cj *tir.CJump, a *Allocation) {
	e.loadInto("eax", cj.Left, a)
	rhs := e.operand(cj.Right, a)
	e.line("    cmp eax, %s", rhs)
	e.line("    %s %s", jccFor(cj.Op), cj.IfTrue)
	if cj.IfFalse != "" {
		e.line("    jmp %s", cj.IfFalse)
	}
}

func jccFor(op tir.BinOp) string {
	switch op {
	case tir.Lt:
		return "jl"
	case tir.Le:
		return "jle"
	case tir.Gt:
		return "jg"
	case tir.Ge:
		return "jge"
	case tir.Eq:
		return "je"
	default:
		return "jne"
	}
}

// operand renders a simple (non-Call, non-BinaryExpr) expression as an
// x86 operand string. Complex sub-expressions are expected to already have
// been flattened into a temp by the TIR builder (spec.md §4.7's canonical
// form), so operand only ever sees Const/TempRef/Mem-of-register/NameRef.
func (e *Emitter) operand(x tir.Expr, a *Allocation) string {
	switch v := x.(type) {
	case tir.Const:
		return fmt.Sprintf("%d", v.Value)
	case tir.TempRef:
		return e.locOperand(a.Loc[v.T.ID])
	case tir.NameRef:
		return v.Label
	default:
		return "eax"
	}
}

func (e *Emitter) locOperand(loc Location) string {
	if loc.IsSpilled() {
		return fmt.Sprintf("[ebp-%d]", loc.Offset)
	}
	return loc.Reg
}

// loadInto emits code that leaves x's value in register reg, spilling
// through the other scratch register (edx) when both operands of a binary
// expression are themselves spilled temporaries (the "two spilled operands
// in one instruction" rule: x86 cannot reference two memory operands in one
// instruction, so one is loaded into scratch first).
func (e *Emitter) loadInto(reg string, x tir.Expr, a *Allocation) {
	switch v := x.(type) {
	case tir.Const:
		e.line("    mov %s, %d", reg, v.Value)
	case tir.TempRef:
		loc := a.Loc[v.T.ID]
		if loc.Reg == reg {
			return
		}
		e.line("    mov %s, %s", reg, e.locOperand(loc))
	case tir.NameRef:
		e.line("    mov %s, %s", reg, v.Label)
	case *tir.Mem:
		e.loadInto(reg, v.Base, a)
		if v.Offset != 0 {
			e.line("    mov %s, [%s+%d]", reg, reg, v.Offset)
		} else {
			e.line("    mov %s, [%s]", reg, reg)
		}
	case *tir.BinaryExpr:
		e.emitBinary(reg, v, a)
	case *tir.Call:
		e.emitCall(v, a)
		if reg != "eax" {
			e.line("    mov %s, eax", reg)
		}
	default:
		e.line("    xor %s, %s", reg, reg)
	}
}

func (e *Emitter) emitBinary(reg string, v *tir.BinaryExpr, a *Allocation) {
	e.loadInto(reg, v.Left, a)
	rightSpilled := isSpilledTemp(v.Right, a)
	leftWasSpilled := isSpilledTemp(v.Left, a)
	rhs := e.operand(v.Right, a)
	if leftWasSpilled && rightSpilled {
		e.line("    mov edx, %s", rhs)
		rhs = "edx"
	}
	switch v.Op {
	case tir.Add:
		e.line("    add %s, %s", reg, rhs)
	case tir.Sub:
		e.line("    sub %s, %s", reg, rhs)
	case tir.Mul:
		e.line("    imul %s, %s", reg, rhs)
	case tir.Div:
		e.line("    mov edx, 0")
		e.line("    idiv %s", rhs)
	case tir.Mod:
		e.line("    mov edx, 0")
		e.line("    idiv %s", rhs)
		e.line("    mov %s, edx", reg)
	case tir.And:
		e.line("    and %s, %s", reg, rhs)
	case tir.Or:
		e.line("    or %s, %s", reg, rhs)
	case tir.Lt, tir.Le, tir.Gt, tir.Ge, tir.Eq, tir.Ne:
		e.line("    cmp %s, %s", reg, rhs)
		e.line("    %s al", setccFor(v.Op))
		e.line("    movzx %s, al", reg)
	}
}

func setccFor(op tir.BinOp) string {
	switch op {
	case tir.Lt:
		return "setl"
	case tir.Le:
		return "setle"
	case tir.Gt:
		return "setg"
	case tir.Ge:
		return "setge"
	case tir.Eq:
		return "sete"
	default:
		return "setne"
	}
}

func isSpilledTemp(x tir.Expr, a *Allocation) bool {
	t, ok := x.(tir.TempRef)
	return ok && a.Loc[t.T.ID].IsSpilled()
}

func (e *Emitter) emitMove(dst, src tir.Expr, a *Allocation) {
	switch d := dst.(type) {
	case tir.TempRef:
		loc := a.Loc[d.T.ID]
		if loc.IsSpilled() {
			e.loadInto("eax", src, a)
			e.line("    mov [ebp-%d], eax", loc.Offset)
		} else {
			e.loadInto(loc.Reg, src, a)
		}
	case *tir.Mem:
		e.loadInto("eax", d.Base, a)
		e.loadInto("edx", src, a)
		if d.Offset != 0 {
			e.line("    mov [eax+%d], edx", d.Offset)
		} else {
			e.line("    mov [eax], edx")
		}
	}
}

func (e *Emitter) emitCall(c *tir.Call, a *Allocation) {
	for i := len(c.Args) - 1; i >= 0; i-- {
		e.loadInto("eax", c.Args[i], a)
		e.line("    push eax")
	}
	e.line("    call %s", c.Label)
	if len(c.Args) > 0 {
		e.line("    add esp, %d", len(c.Args)*4)
	}
}
