// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package checker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/jsxref/services/refactor/ast"
)

func parse(t *testing.T, src string) *ast.SourceTree {
	t.Helper()
	tree, err := ast.NewParser().Parse(context.Background(), "test.tsx", []byte(src))
	require.NoError(t, err)
	return tree
}

// tagName returns the name node of the first element whose tag is tag.
func tagName(t *testing.T, tree *ast.SourceTree, tag string) ast.Node {
	t.Helper()
	for i := 0; i < tree.NodeCount(); i++ {
		n, _ := tree.NodeByID(ast.NodeID(i))
		if n.Kind() != ast.KindJsxOpeningElement && n.Kind() != ast.KindJsxSelfClosingElement {
			continue
		}
		if name := n.ChildByField("name"); name.Text() == tag {
			return name
		}
	}
	t.Fatalf("no element <%s> in source", tag)
	return ast.Node{}
}

func typeOf(t *testing.T, c *Checker, src, tag string) (string, *Symbol) {
	t.Helper()
	tree := parse(t, src)
	name := tagName(t, tree, tag)
	sym, ok := c.GetSymbolAtLocation(name)
	require.True(t, ok, "symbol for <%s> not resolved", tag)
	return c.TypeToString(c.GetTypeOfSymbolAtLocation(sym, name)), sym
}

func TestChecker_ResolvesTypes(t *testing.T) {
	c := New()

	tests := []struct {
		name string
		src  string
		tag  string
		kind SymbolKind
		want string
	}{
		{
			name: "intrinsic html element",
			src:  "function Foo() { return <div>Hi</div>; }",
			tag:  "div",
			kind: SymbolIntrinsic,
			want: "React.DetailedHTMLProps<React.HTMLAttributes<HTMLDivElement>, HTMLDivElement>",
		},
		{
			name: "intrinsic element with specific bag",
			src:  "const F = () => { return <input />; };",
			tag:  "input",
			kind: SymbolIntrinsic,
			want: "React.DetailedHTMLProps<React.InputHTMLAttributes<HTMLInputElement>, HTMLInputElement>",
		},
		{
			name: "intrinsic svg element",
			src:  "const F = () => { return <svg />; };",
			tag:  "svg",
			kind: SymbolIntrinsic,
			want: "React.SVGProps<SVGSVGElement>",
		},
		{
			name: "function declaration",
			src: `function Input(props: { value: number }) { return <input />; }
const Form = () => { return <Input value={1} />; };`,
			tag:  "Input",
			kind: SymbolFunction,
			want: "(props: { value: number }) => JSX.Element",
		},
		{
			name: "function with return type and optional parameter",
			src: `function Badge(label?: string): React.ReactElement { return null; }
function App() { return <Badge />; }`,
			tag:  "Badge",
			kind: SymbolFunction,
			want: "(label?: string) => React.ReactElement",
		},
		{
			name: "class declaration",
			src: `class Panel extends React.Component {}
function App() { return <Panel />; }`,
			tag:  "Panel",
			kind: SymbolClass,
			want: "typeof Panel",
		},
		{
			name: "annotated variable",
			src: `const Icon: React.FC<IconProps> = () => null;
function App() { return <Icon />; }`,
			tag:  "Icon",
			kind: SymbolVariable,
			want: "React.FC<IconProps>",
		},
		{
			name: "arrow function variable",
			src: `const Row = (id: string) => <tr />;
function App() { return <Row />; }`,
			tag:  "Row",
			kind: SymbolVariable,
			want: "(id: string) => JSX.Element",
		},
		{
			name: "forwardRef variable",
			src: `const Field = React.forwardRef<HTMLInputElement, Props>((p, r) => <input ref={r} />);
function App() { return <Field />; }`,
			tag:  "Field",
			kind: SymbolVariable,
			want: "React.ForwardRefExoticComponent<Props & React.RefAttributes<HTMLInputElement>>",
		},
		{
			name: "default import",
			src: `import Button from "./Button";
function App() { return <Button />; }`,
			tag:  "Button",
			kind: SymbolImport,
			want: "any",
		},
		{
			name: "aliased named import",
			src: `import { Card as Tile } from "./Card";
function App() { return <Tile />; }`,
			tag:  "Tile",
			kind: SymbolImport,
			want: "any",
		},
		{
			name: "exported declaration",
			src: `export function Header() { return null; }
function App() { return <Header />; }`,
			tag:  "Header",
			kind: SymbolFunction,
			want: "() => JSX.Element",
		},
		{
			name: "annotated parameter",
			src:  "function Wrap(Comp: React.ComponentType) { return <Comp />; }",
			tag:  "Comp",
			kind: SymbolParameter,
			want: "React.ComponentType",
		},
		{
			name: "destructured parameter",
			src:  "function Wrap({ Icon }: Props) { return <Icon />; }",
			tag:  "Icon",
			kind: SymbolParameter,
			want: "any",
		},
		{
			name: "single arrow parameter",
			src:  "const wrap = Comp => { return <Comp />; };",
			tag:  "Comp",
			kind: SymbolParameter,
			want: "any",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, sym := typeOf(t, c, tt.src, tt.tag)
			assert.Equal(t, tt.kind, sym.Kind)
			assert.Equal(t, tt.tag, sym.Name)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecker_MemberTags(t *testing.T) {
	c := New()

	tests := []struct {
		name     string
		src      string
		tag      string
		baseKind SymbolKind
		want     string
	}{
		{
			name:     "static class member",
			src:      "class Menu { static Item = () => null; }\nfunction App() { return <Menu.Item />; }",
			tag:      "Menu.Item",
			baseKind: SymbolClass,
			want:     "typeof Menu.Item",
		},
		{
			name:     "object of components",
			src:      "const ui = { Card: () => null };\nfunction App() { return <ui.Card>x</ui.Card>; }",
			tag:      "ui.Card",
			baseKind: SymbolVariable,
			want:     "typeof ui.Card",
		},
		{
			name:     "nested path",
			src:      "const ds = { forms: { Field: () => null } };\nfunction App() { return <ds.forms.Field />; }",
			tag:      "ds.forms.Field",
			baseKind: SymbolVariable,
			want:     "typeof ds.forms.Field",
		},
		{
			name:     "namespace import",
			src:      "import * as Icons from \"./icons\";\nfunction App() { return <Icons.Star />; }",
			tag:      "Icons.Star",
			baseKind: SymbolImport,
			want:     "any",
		},
		{
			name:     "parameter member",
			src:      "function Wrap(slots: Slots) { return <slots.Header />; }",
			tag:      "slots.Header",
			baseKind: SymbolParameter,
			want:     "any",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, sym := typeOf(t, c, tt.src, tt.tag)
			assert.Equal(t, SymbolMember, sym.Kind)
			assert.Equal(t, tt.tag, sym.Name)
			require.NotNil(t, sym.Base)
			assert.Equal(t, tt.baseKind, sym.Base.Kind)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unbound base", func(t *testing.T) {
		tree := parse(t, "function App() { return <Missing.Item />; }")
		_, ok := c.GetSymbolAtLocation(tagName(t, tree, "Missing.Item"))
		assert.False(t, ok)
	})
}

func TestChecker_InnerScopeShadowsOuter(t *testing.T) {
	src := `class Item {}
function List(Item: RowType) { return <Item />; }`
	got, sym := typeOf(t, New(), src, "Item")
	assert.Equal(t, SymbolParameter, sym.Kind)
	assert.Equal(t, "RowType", got)
}

func TestChecker_HoistedDeclaration(t *testing.T) {
	src := `function App() { return <Later />; }
function Later() { return null; }`
	_, sym := typeOf(t, New(), src, "Later")
	assert.Equal(t, SymbolFunction, sym.Kind)
}

func TestChecker_Unresolved(t *testing.T) {
	c := New()

	t.Run("unbound component", func(t *testing.T) {
		tree := parse(t, "function App() { return <Missing />; }")
		_, ok := c.GetSymbolAtLocation(tagName(t, tree, "Missing"))
		assert.False(t, ok)
	})

	t.Run("unknown intrinsic", func(t *testing.T) {
		tree := parse(t, "function App() { return <blink />; }")
		_, ok := c.GetSymbolAtLocation(tagName(t, tree, "blink"))
		assert.False(t, ok)
	})

	t.Run("binding in sibling function is not visible", func(t *testing.T) {
		tree := parse(t, `function A() { const Hidden = 1; return null; }
function B() { return <Hidden />; }`)
		_, ok := c.GetSymbolAtLocation(tagName(t, tree, "Hidden"))
		assert.False(t, ok)
	})

	t.Run("non identifier node", func(t *testing.T) {
		tree := parse(t, "function App() { return <div />; }")
		_, ok := c.GetSymbolAtLocation(tree.Root())
		assert.False(t, ok)
		_, ok = c.GetSymbolAtLocation(ast.Node{})
		assert.False(t, ok)
	})
}

func TestChecker_TypeToStringDefaults(t *testing.T) {
	c := New()
	assert.Equal(t, "any", c.TypeToString(Type{}))
	assert.Equal(t, "any", c.TypeToString(c.GetTypeOfSymbolAtLocation(nil, ast.Node{})))
}

func TestLoadIntrinsicTable(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		table, err := LoadIntrinsicTable([]byte(`
html:
  div: { element: HTMLDivElement, attributes: HTMLAttributes }
svg:
  path: SVGPathElement
`))
		require.NoError(t, err)
		assert.Equal(t, 2, table.Len())

		el, ok := table.Lookup("path")
		require.True(t, ok)
		assert.Equal(t, NamespaceSVG, el.Namespace)
		assert.Equal(t, "React.SVGProps<SVGPathElement>", el.PropsType())
	})

	t.Run("missing attributes", func(t *testing.T) {
		_, err := LoadIntrinsicTable([]byte("html:\n  div: { element: HTMLDivElement }\n"))
		assert.Error(t, err)
	})

	t.Run("duplicate across namespaces", func(t *testing.T) {
		_, err := LoadIntrinsicTable([]byte(`
html:
  a: { element: HTMLAnchorElement, attributes: AnchorHTMLAttributes }
svg:
  a: SVGAElement
`))
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := LoadIntrinsicTable([]byte("html: [1, 2"))
		assert.Error(t, err)
	})
}

func TestWithIntrinsics(t *testing.T) {
	table, err := LoadIntrinsicTable([]byte("html:\n  blink: { element: HTMLElement, attributes: HTMLAttributes }\n"))
	require.NoError(t, err)

	c := New(WithIntrinsics(table))
	got, sym := typeOf(t, c, "function App() { return <blink />; }", "blink")
	assert.Equal(t, SymbolIntrinsic, sym.Kind)
	assert.Equal(t, "React.DetailedHTMLProps<React.HTMLAttributes<HTMLElement>, HTMLElement>", got)
}

func TestDefaultIntrinsics(t *testing.T) {
	table := DefaultIntrinsics()
	assert.Greater(t, table.Len(), 50)
	assert.Same(t, table, DefaultIntrinsics())
}
