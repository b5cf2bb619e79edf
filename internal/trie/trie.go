// Package trie implements the package trie and per-compilation-unit import
// context of spec.md §4.1: canonical dotted names resolve to declarations,
// and each compilation unit gets a map from simple name to
// {declaration, package, ambiguous}.
package trie

import (
	"fmt"
	"strings"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/ast"
	"go.uber.org/multierr"
)

// Node is one trie node: either a subpackage (Children non-nil) or a leaf
// declaration (Decl non-nil). A node is never both.
type Node struct {
	Children map[string]*Node
	Decl     ast.TypeDecl
}

// Trie is the package trie rooted at the default (unnamed) package.
type Trie struct {
	root *Node
}

// New creates an empty trie.
func New() *Trie {
	return &Trie{root: &Node{Children: map[string]*Node{}}}
}

// Insert walks/creates subpackage nodes for path[:len-1] and inserts decl as
// a leaf named path[len-1]. A collision between a subpackage and a
// declaration at the same slot is a link error.
func (t *Trie) Insert(path []string, decl ast.TypeDecl) error {
	if len(path) == 0 {
		return fmt.Errorf("cannot insert declaration at empty path")
	}
	n := t.root
	for _, seg := range path[:len(path)-1] {
		child, ok := n.Children[seg]
		if !ok {
			child = &Node{Children: map[string]*Node{}}
			n.Children[seg] = child
		} else if child.Decl != nil {
			return fmt.Errorf("package name %q collides with declaration %q", seg, child.Decl.FullyQualifiedName())
		}
		n = child
	}

	last := path[len(path)-1]
	existing, ok := n.Children[last]
	if ok {
		if existing.Decl != nil {
			return fmt.Errorf("duplicate declaration for %q", strings.Join(path, "."))
		}
		if len(existing.Children) > 0 {
			return fmt.Errorf("declaration name %q collides with an existing package", last)
		}
	}
	n.Children[last] = &Node{Decl: decl}
	return nil
}

// LookupResult distinguishes the three outcomes of a trie lookup.
type LookupResult struct {
	Package *Node // non-nil if path resolved to a package
	Decl    ast.TypeDecl
}

// Found reports whether the lookup found anything at all.
func (r LookupResult) Found() bool { return r.Package != nil || r.Decl != nil }

// Lookup resolves a dotted vector of simple names, returning {package, decl,
// not-found}.
func (t *Trie) Lookup(path []string) LookupResult {
	n := t.root
	for i, seg := range path {
		child, ok := n.Children[seg]
		if !ok {
			return LookupResult{}
		}
		if child.Decl != nil {
			if i == len(path)-1 {
				return LookupResult{Decl: child.Decl}
			}
			return LookupResult{} // decl reached before exhausting path: not found
		}
		n = child
	}
	return LookupResult{Package: n}
}

// Children returns the names directly declared under package prefix path
// (used for wildcard/on-demand import expansion).
func (t *Trie) Children(path []string) map[string]ast.TypeDecl {
	n := t.root
	for _, seg := range path {
		child, ok := n.Children[seg]
		if !ok || child.Decl != nil {
			return nil
		}
		n = child
	}
	out := map[string]ast.TypeDecl{}
	for name, child := range n.Children {
		if child.Decl != nil {
			out[name] = child.Decl
		}
	}
	return out
}

// InsertJavaLang inserts the fixed java.lang stubs, and must be called
// before any user declaration is inserted (spec.md §3).
func InsertJavaLang(t *Trie, jl *ast.JavaLang) error {
	var err error
	err = multierr.Append(err, t.Insert([]string{"java", "lang", "Object"}, jl.Object))
	err = multierr.Append(err, t.Insert([]string{"java", "lang", "String"}, jl.String))
	err = multierr.Append(err, t.Insert([]string{"java", "lang", "Cloneable"}, jl.Cloneable))
	err = multierr.Append(err, t.Insert([]string{"java", "lang", "Serializable"}, jl.Serializable))
	err = multierr.Append(err, t.Insert([]string{"java", "lang", "Integer"}, jl.Integer))
	err = multierr.Append(err, t.Insert([]string{"java", "lang", "Character"}, jl.Character))
	err = multierr.Append(err, t.Insert([]string{"java", "lang", "Boolean"}, jl.Boolean))
	err = multierr.Append(err, t.Insert([]string{"java", "lang", "Array"}, jl.Array))
	return err
}
