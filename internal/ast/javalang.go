package ast

import "github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"

// JavaLang holds the handful of java.lang declarations that must exist
// before any user code resolves (spec.md §3): Object, String, Cloneable,
// Serializable, Integer, Character, Boolean, and the synthetic Array
// declaration that owns the `length` pseudo-field every array type exposes.
type JavaLang struct {
	Object       *ClassDecl
	String       *ClassDecl
	Cloneable    *InterfaceDecl
	Serializable *InterfaceDecl
	Integer      *ClassDecl
	Character    *ClassDecl
	Boolean      *ClassDecl
	Array        *ClassDecl // synthetic; source of the array `.length` field
}

func stubMethod(owner TypeDecl, name string, ret Type, params ...*VarDecl) *MethodDecl {
	return &MethodDecl{
		DeclBase: DeclBase{
			Simple: name,
			FQN:    owner.FullyQualifiedName() + "." + name,
			Mods:   NewModifierSet(Public),
			Parent: owner,
		},
		ReturnType: ret,
		Params:     params,
		Body:       &Block{}, // synthetic trivial body; runtime ABI provides the real implementation
		Owner:      owner,
	}
}

func param(name string, t Type, idx int) *VarDecl {
	return &VarDecl{
		DeclBase: DeclBase{Simple: name, Mods: NewModifierSet()},
		DeclType: t,
		IsParam:  true,
		Index:    idx,
	}
}

// BuildJavaLang constructs the fixed java.lang stub declarations. Callers
// insert the result into the package trie (internal/trie) before linking
// any user compilation unit.
func BuildJavaLang() *JavaLang {
	jl := &JavaLang{}

	jl.Object = &ClassDecl{
		DeclBase: DeclBase{Simple: "Object", FQN: "java.lang.Object", Mods: NewModifierSet(Public)},
		PkgName:  []string{"java", "lang"},
	}
	jl.Object.Methods = []*MethodDecl{
		stubMethod(jl.Object, "equals", Boolean, param("o", jl.objectRef(), 0)),
		stubMethod(jl.Object, "hashCode", Int),
		stubMethod(jl.Object, "toString", String),
	}
	jl.Object.Constructors = []*MethodDecl{
		{DeclBase: DeclBase{Simple: "Object", FQN: "java.lang.Object.Object", Mods: NewModifierSet(Public)},
			ReturnType: Void, IsConstructor: true, Body: &Block{}, Owner: jl.Object},
	}

	mkRef := func(decl TypeDecl) *ReferenceType {
		rt := NewUnresolvedReferenceType([]string{decl.FullyQualifiedName()})
		rt.SetDecl(decl)
		return rt
	}

	jl.String = &ClassDecl{
		DeclBase: DeclBase{Simple: "String", FQN: "java.lang.String", Mods: NewModifierSet(Public, Final)},
		PkgName:  []string{"java", "lang"},
		SuperRef: mkRef(jl.Object),
		Super:    jl.Object,
	}
	jl.String.Constructors = []*MethodDecl{
		{DeclBase: DeclBase{Simple: "String", FQN: "java.lang.String.String", Mods: NewModifierSet(Public)},
			ReturnType: Void, IsConstructor: true, Body: &Block{}, Owner: jl.String},
	}
	jl.String.Fields = []*FieldDecl{
		{DeclBase: DeclBase{Simple: "chars", Mods: NewModifierSet(), Parent: jl.String}, DeclType: NewArrayType(Char)},
	}
	jl.String.Methods = []*MethodDecl{
		stubMethod(jl.String, "equals", Boolean, param("o", mkRef(jl.Object), 0)),
		stubMethod(jl.String, "toString", String),
		stubMethod(jl.String, "hashCode", Int),
		stubMethod(jl.String, "length", Int),
		stubMethod(jl.String, "charAt", Char, param("i", Int, 0)),
		stubMethod(jl.String, "concat", String, param("s", String, 0)),
		substaticMethod(jl.String, "valueOf", String, param("v", Int, 0)),
		substaticMethod(jl.String, "valueOf", String, param("v", Boolean, 0)),
		substaticMethod(jl.String, "valueOf", String, param("v", Char, 0)),
		substaticMethod(jl.String, "valueOf", String, param("v", mkRef(jl.Object), 0)),
	}

	jl.Cloneable = &InterfaceDecl{
		DeclBase: DeclBase{Simple: "Cloneable", FQN: "java.lang.Cloneable", Mods: NewModifierSet(Public)},
		PkgName:  []string{"java", "lang"},
	}
	jl.Serializable = &InterfaceDecl{
		DeclBase: DeclBase{Simple: "Serializable", FQN: "java.lang.Serializable", Mods: NewModifierSet(Public)},
		PkgName:  []string{"java", "lang"},
	}

	jl.Integer = wrapperClass(jl.Object, "Integer", Int)
	jl.Character = wrapperClass(jl.Object, "Character", Char)
	jl.Boolean = wrapperClass(jl.Object, "Boolean", Boolean)

	jl.Array = &ClassDecl{
		DeclBase: DeclBase{Simple: "Array", FQN: "java.lang.Array", Mods: NewModifierSet(Public, Final)},
		PkgName:  []string{"java", "lang"},
		SuperRef: mkRef(jl.Object),
		Super:    jl.Object,
	}
	jl.Array.Fields = []*FieldDecl{
		{DeclBase: DeclBase{Simple: "length", Mods: NewModifierSet(Public, Final), Parent: jl.Array}, DeclType: Int},
	}

	return jl
}

func substaticMethod(owner TypeDecl, name string, ret Type, params ...*VarDecl) *MethodDecl {
	m := stubMethod(owner, name, ret, params...)
	m.Mods = NewModifierSet(Public, Static)
	return m
}

func wrapperClass(object *ClassDecl, name string, prim Type) *ClassDecl {
	c := &ClassDecl{
		DeclBase: DeclBase{Simple: name, FQN: "java.lang." + name, Mods: NewModifierSet(Public, Final)},
		PkgName:  []string{"java", "lang"},
	}
	ref := NewUnresolvedReferenceType([]string{object.FullyQualifiedName()})
	ref.SetDecl(object)
	c.SuperRef = ref
	c.Super = object
	c.Fields = []*FieldDecl{
		{DeclBase: DeclBase{Simple: "value", Mods: NewModifierSet(), Parent: c}, DeclType: prim},
	}
	c.Constructors = []*MethodDecl{
		{DeclBase: DeclBase{Simple: name, FQN: "java.lang." + name + "." + name, Mods: NewModifierSet(Public)},
			ReturnType: Void, IsConstructor: true, Body: &Block{}, Owner: c, Params: []*VarDecl{param("v", prim, 0)}},
	}
	return c
}

func (jl *JavaLang) objectRef() *ReferenceType {
	rt := NewUnresolvedReferenceType([]string{"java", "lang", "Object"})
	rt.SetDecl(jl.Object)
	return rt
}

// zeroPos is used for synthetic nodes that have no real source location.
var zeroPos = source.Position{}
