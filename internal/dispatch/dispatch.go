// Package dispatch builds dispatch vectors for every concrete class
// (component 9): instance methods that override one another must share a
// dispatch-vector slot, while methods that can never appear together in the
// same object's vector may still be packed into the same slot if doing so
// doesn't collide. This is modeled as graph coloring over a global
// method-interference graph, the way a register allocator colors an
// interference graph over live ranges (internal/codegen borrows the same
// greedy-coloring idiom for register assignment).
package dispatch

import "github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"

// group is a union-find node: every method that overrides (directly or
// transitively) another method belongs to the same group and therefore
// must receive the same dispatch-vector color.
type group struct {
	parent  *group
	methods []*ast.MethodDecl
}

func (g *group) find() *group {
	for g.parent != nil {
		g = g.parent
	}
	return g
}

func union(a, b *group) {
	ra, rb := a.find(), b.find()
	if ra == rb {
		return
	}
	ra.methods = append(ra.methods, rb.methods...)
	rb.parent = ra
}

// Builder assigns MethodDecl.DVColor for every instance method across a
// closed set of classes.
type Builder struct {
	classes []*ast.ClassDecl
	groupOf map[*ast.MethodDecl]*group
}

func New(classes []*ast.ClassDecl) *Builder {
	return &Builder{classes: classes, groupOf: map[*ast.MethodDecl]*group{}}
}

// Build runs override-unioning then greedy coloring and records each
// method's slot in its DVColor field; it returns nothing. The per-class
// vectors of labels come from DispatchVector once mangled labels are known
// (internal/tir.Builder assigns labels; this package only assigns colors).
func (b *Builder) Build() {
	b.unionOverrides()
	b.colorGroups()
}

func (b *Builder) groupFor(m *ast.MethodDecl) *group {
	if g, ok := b.groupOf[m]; ok {
		return g
	}
	g := &group{methods: []*ast.MethodDecl{m}}
	b.groupOf[m] = g
	return g
}

// unionOverrides walks every class's instance methods and unions each with
// the first same-signature method found in its ancestry (its nearest
// override target), the same way the hierarchy checker's "owed" set
// matches signatures up the super-class chain.
func (b *Builder) unionOverrides() {
	for _, c := range b.classes {
		for _, m := range c.Methods {
			if m.Modifiers().IsStatic() {
				continue // static methods never dispatch dynamically
			}
			g := b.groupFor(m)
			if sup, ok := c.Super.(*ast.ClassDecl); ok {
				if ancestor := findOverride(sup, m.Signature()); ancestor != nil {
					union(g, b.groupFor(ancestor))
				}
			}
		}
	}
}

func findOverride(c *ast.ClassDecl, sig ast.Signature) *ast.MethodDecl {
	for _, m := range c.Methods {
		if !m.Modifiers().IsStatic() && m.Signature().Equals(sig) {
			return m
		}
	}
	if sup, ok := c.Super.(*ast.ClassDecl); ok {
		return findOverride(sup, sig)
	}
	return nil
}

// colorGroups greedily assigns each union-find group the lowest color not
// already used by a group sharing a class's effective method set (i.e. two
// groups interfere iff some single class's instance methods include
// representatives of both).
func (b *Builder) colorGroups() {
	colorOf := map[*group]int{}

	for _, c := range b.classes {
		used := map[int]bool{}
		var uncolored []*group
		for _, m := range effectiveMethods(c) {
			g := b.groupFor(m).find()
			if col, ok := colorOf[g]; ok {
				used[col] = true
			} else {
				uncolored = append(uncolored, g)
			}
		}
		for _, g := range uncolored {
			if _, ok := colorOf[g]; ok {
				continue
			}
			col := 0
			for used[col] {
				col++
			}
			colorOf[g] = col
			used[col] = true
		}
	}

	for m, g := range b.groupOf {
		m.DVColor = colorOf[g.find()]
	}
}

// effectiveMethods returns the full set of instance methods a class's
// objects dispatch through: its own plus every inherited method not
// locally overridden.
func effectiveMethods(c *ast.ClassDecl) []*ast.MethodDecl {
	seen := map[string]bool{}
	var out []*ast.MethodDecl
	for cur := c; cur != nil; {
		for _, m := range cur.Methods {
			if m.Modifiers().IsStatic() {
				continue
			}
			key := m.Signature().String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, m)
		}
		sup, ok := cur.Super.(*ast.ClassDecl)
		if !ok {
			break
		}
		cur = sup
	}
	return out
}

// DispatchVector builds class c's dispatch vector: labelOf resolves a
// method to its mangled assembly label (internal/tir.Builder.MethodLabel),
// indexed by DVColor.
func DispatchVector(c *ast.ClassDecl, labelOf func(*ast.MethodDecl) string) []string {
	methods := effectiveMethods(c)
	maxColor := -1
	for _, m := range methods {
		if m.DVColor > maxColor {
			maxColor = m.DVColor
		}
	}
	dv := make([]string, maxColor+1)
	for _, m := range methods {
		dv[m.DVColor] = labelOf(m)
	}
	return dv
}
