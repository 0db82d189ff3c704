package extract

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/tsschema/internal/program"
	"github.com/jward/tsschema/internal/schema"
)

// writeProject writes files into a temp dir holding an empty tsconfig.json
// and returns the path of index.ts.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files["tsconfig.json"] = "{}"
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return filepath.Join(dir, "index.ts")
}

func gatherFiles(t *testing.T, files map[string]string, opts ...Option) *schema.Items {
	t.Helper()
	items, err := tryGather(t, files, opts...)
	require.NoError(t, err)
	return items
}

func gatherSource(t *testing.T, src string, opts ...Option) *schema.Items {
	t.Helper()
	return gatherFiles(t, map[string]string{"index.ts": src}, opts...)
}

func tryGather(t *testing.T, files map[string]string, opts ...Option) (*schema.Items, error) {
	t.Helper()
	ctx := context.Background()
	prog, err := program.Load(ctx, writeProject(t, files))
	require.NoError(t, err)
	return Gather(ctx, prog, nil, opts...)
}

func mustGet(t *testing.T, items *schema.Items, name string) *schema.Item {
	t.Helper()
	require.NotNil(t, items)
	it, ok := items.Get(name)
	require.True(t, ok, "missing item %q in %v", name, items.Keys())
	return it
}

func TestGather_Class(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, `/** A point. */
export class Point {
  constructor() {}
  x: number = 0;
  static origin: Point;
  private secret = 1;
  /** @internal */
  hidden(): void {}
  get len(): number { return 0; }
}
`)
	p := mustGet(t, items, "Point")
	assert.Equal(t, schema.KindClass, p.Kind)
	assert.Equal(t, "Point", p.ID)
	assert.Equal(t, schema.TypeClass, p.Type)
	assert.Equal(t, "* A point. ", p.Description)
	assert.Equal(t, &schema.Loc{File: "index.ts", Line: 2, Column: 0}, p.Loc)
	assert.Nil(t, p.Extends)
	assert.Nil(t, p.Implements)

	require.NotNil(t, p.Construct)
	assert.Equal(t, schema.KindConstructor, p.Construct.Kind)
	assert.Equal(t, "Point^constructor", p.Construct.ID)
	assert.Equal(t, schema.TypeFunction, p.Construct.Type)
	assert.NotNil(t, p.Construct.Params)
	assert.Empty(t, p.Construct.Params)

	assert.Equal(t, []string{"x", "len"}, p.InstanceProperties.Keys())
	x := mustGet(t, p.InstanceProperties, "x")
	assert.Equal(t, schema.KindProperty, x.Kind)
	assert.Equal(t, "Point.x", x.ID)
	assert.Equal(t, schema.TypeNumber, x.Type)
	length := mustGet(t, p.InstanceProperties, "len")
	assert.True(t, length.Readonly)
	assert.Equal(t, schema.TypeNumber, length.Type)

	assert.Equal(t, []string{"origin"}, p.Properties.Keys())
	origin := mustGet(t, p.Properties, "origin")
	assert.Equal(t, "Point^origin", origin.ID)
	assert.Equal(t, "Point", origin.Type)
	assert.Equal(t, "index.ts", origin.TypeSource)
}

func TestGather_ConstructParamsJSON(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, "export class Empty {\n  constructor() {}\n}\n")
	data, err := json.Marshal(mustGet(t, items, "Empty").Construct)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"params":[]`)
}

func TestGather_Heritage(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, `export class Animal {
  constructor(public name: string) {}
  move(): void {}
}
export interface Pet {
  owner: string;
}
export class Dog extends Animal implements Pet {
  owner = "x";
  bark(): string { return "woof"; }
}
`)
	animal := mustGet(t, items, "Animal")
	assert.Equal(t, []string{"name", "move"}, animal.InstanceProperties.Keys())
	require.Len(t, animal.Construct.Params, 1)
	assert.Equal(t, "Animal^constructor^name", animal.Construct.Params[0].ID)

	dog := mustGet(t, items, "Dog")
	require.NotNil(t, dog.Extends)
	assert.Equal(t, "Animal", dog.Extends.Type)
	assert.Equal(t, "index.ts", dog.Extends.TypeSource)
	require.Len(t, dog.Implements, 1)
	pet := dog.Implements[0]
	assert.Equal(t, schema.TypeInterface, pet.Type)
	assert.Empty(t, pet.TypeSource)
	assert.Equal(t, schema.TypeString, mustGet(t, pet.Properties, "owner").Type)

	require.NotNil(t, dog.Construct)
	assert.Equal(t, "Dog^constructor", dog.Construct.ID)
	require.Len(t, dog.Construct.Params, 1)
	assert.Equal(t, "name", dog.Construct.Params[0].Name)
	assert.Equal(t, "Dog^constructor^name", dog.Construct.Params[0].ID)

	assert.Equal(t, []string{"owner", "bark", "name", "move"}, dog.InstanceProperties.Keys())
	assert.Equal(t, schema.TypeString, mustGet(t, dog.InstanceProperties, "owner").Type)
	bark := mustGet(t, dog.InstanceProperties, "bark")
	assert.Equal(t, schema.KindMethod, bark.Kind)
	assert.Equal(t, "Dog.bark", bark.ID)
	assert.Equal(t, schema.TypeFunction, bark.Type)
	assert.Equal(t, schema.TypeString, bark.Returns.Type)
}

func TestGather_Interface(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, `export interface Base {
  id: string;
}
/** Something with a name. */
export interface Named extends Base {
  name?: string;
  greet(who: string): string;
}
`)
	named := mustGet(t, items, "Named")
	assert.Equal(t, schema.KindInterface, named.Kind)
	assert.Equal(t, schema.TypeInterface, named.Type)
	assert.Equal(t, "* Something with a name. ", named.Description)
	require.Len(t, named.Implements, 1)
	assert.Equal(t, schema.TypeInterface, named.Implements[0].Type)
	assert.Equal(t, []string{"id"}, named.Implements[0].Properties.Keys())
	assert.Nil(t, named.Construct)
	assert.Nil(t, named.Extends)

	assert.Equal(t, []string{"name", "greet", "id"}, named.Properties.Keys())
	name := mustGet(t, named.Properties, "name")
	assert.Equal(t, "Named.name", name.ID)
	assert.True(t, name.Optional)

	greet := mustGet(t, named.Properties, "greet")
	assert.Equal(t, schema.KindMethod, greet.Kind)
	require.Len(t, greet.Params, 1)
	assert.Equal(t, "who", greet.Params[0].Name)
	assert.Equal(t, "Named.greet^who", greet.Params[0].ID)
	assert.Equal(t, schema.TypeString, greet.Params[0].Type)
	assert.Equal(t, schema.TypeString, greet.Returns.Type)
	assert.Equal(t, "Named.id", mustGet(t, named.Properties, "id").ID)
}

func TestGather_InterfaceReferences(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, `export interface Pet {
  owner: string;
}
export interface Box<T> {
  value: T;
}
export interface Chain {
  next(): this;
}
export interface Node {
  child?: Node;
}
export let p: Pet;
export let b: Box<number>;
export let c: Chain;
export let n: Node;
`)
	p := mustGet(t, items, "p")
	assert.Equal(t, schema.KindVariable, p.Kind)
	assert.Equal(t, schema.TypeInterface, p.Type)
	assert.Empty(t, p.TypeSource)
	assert.Equal(t, "p.owner", mustGet(t, p.Properties, "owner").ID)

	b := mustGet(t, items, "b")
	assert.Equal(t, "Box", b.Type)
	assert.Equal(t, "index.ts", b.TypeSource)
	require.Len(t, b.TypeArgs, 1)
	assert.Equal(t, schema.TypeNumber, b.TypeArgs[0].Type)

	c := mustGet(t, items, "c")
	assert.Equal(t, "Chain", c.Type)
	assert.Equal(t, "index.ts", c.TypeSource)

	n := mustGet(t, items, "n")
	assert.Equal(t, schema.TypeInterface, n.Type)
	child := mustGet(t, n.Properties, "child")
	assert.Equal(t, "Node", child.Type)
	assert.Equal(t, "index.ts", child.TypeSource)
}

func TestGather_Union(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, "export let u: string | number | string;\n")
	u := mustGet(t, items, "u")
	assert.Equal(t, schema.KindVariable, u.Kind)
	assert.Equal(t, schema.TypeUnion, u.Type)
	require.Len(t, u.TypeArgs, 3)
	assert.Equal(t, schema.TypeString, u.TypeArgs[0].Type)
	assert.Equal(t, schema.TypeNumber, u.TypeArgs[1].Type)
	assert.Equal(t, schema.TypeString, u.TypeArgs[2].Type)
}

func TestGather_GenericFunction(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, "export function identity<T>(x: T): T { return x; }\n")
	fn := mustGet(t, items, "identity")
	assert.Equal(t, schema.KindFunction, fn.Kind)
	assert.Equal(t, schema.TypeFunction, fn.Type)

	require.Len(t, fn.TypeParams, 1)
	tp := fn.TypeParams[0]
	assert.Equal(t, "T", tp.Name)
	assert.Equal(t, schema.TypeTypeParam, tp.Type)
	assert.Equal(t, "identity^T", tp.ID)

	require.Len(t, fn.Params, 1)
	x := fn.Params[0]
	assert.Equal(t, "x", x.Name)
	assert.Equal(t, "identity^x", x.ID)
	assert.Equal(t, "T", x.Type)
	assert.Equal(t, "identity^T", x.TypeParamSource)

	require.NotNil(t, fn.Returns)
	assert.Equal(t, "T", fn.Returns.Type)
	assert.Equal(t, "identity^T", fn.Returns.TypeParamSource)
}

func TestGather_TypeParamConstraintAndDefault(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, "export function keys<T extends object, K = string>(o: T): K[] { return []; }\n")
	fn := mustGet(t, items, "keys")
	require.Len(t, fn.TypeParams, 2)
	require.Len(t, fn.TypeParams[0].Implements, 1)
	assert.Equal(t, schema.TypeObjectKw, fn.TypeParams[0].Implements[0].Type)
	assert.Equal(t, "string", fn.TypeParams[1].Default)
	assert.Equal(t, schema.TypeArray, fn.Returns.Type)
	assert.Equal(t, "K", fn.Returns.TypeArgs[0].Type)
}

func TestGather_IndexSignatures(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, `export let byIndex: { [i: number]: string };
export let byKey: { [k: string]: number };
export let list: string[];
`)
	byIndex := mustGet(t, items, "byIndex")
	assert.Equal(t, schema.TypeArray, byIndex.Type)
	require.Len(t, byIndex.TypeArgs, 1)
	assert.Equal(t, schema.TypeString, byIndex.TypeArgs[0].Type)

	byKey := mustGet(t, items, "byKey")
	assert.Equal(t, schema.TypeObject, byKey.Type)
	assert.Equal(t, schema.TypeNumber, byKey.TypeArgs[0].Type)

	list := mustGet(t, items, "list")
	assert.Equal(t, schema.TypeArray, list.Type)
	assert.Equal(t, schema.TypeString, list.TypeArgs[0].Type)
}

func TestGather_Enum(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, "export enum Color { Red, Green = 5, Blue, Named = \"n\" }\n")
	color := mustGet(t, items, "Color")
	assert.Equal(t, schema.KindEnum, color.Kind)
	assert.Equal(t, schema.TypeEnum, color.Type)
	assert.Equal(t, []string{"Red", "Green", "Blue", "Named"}, color.Properties.Keys())

	red := mustGet(t, color.Properties, "Red")
	assert.Equal(t, schema.KindEnumMember, red.Kind)
	assert.Equal(t, "Color.Red", red.ID)
	assert.Equal(t, "0", red.Type)
	assert.Equal(t, "5", mustGet(t, color.Properties, "Green").Type)
	assert.Equal(t, "6", mustGet(t, color.Properties, "Blue").Type)
	assert.Equal(t, `"n"`, mustGet(t, color.Properties, "Named").Type)
}

func TestGather_Literals(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, `export const answer = 42;
export let widened = 42;
export const flag = true;
export let mode: "on" | "off";
`)
	assert.Equal(t, "42", mustGet(t, items, "answer").Type)
	assert.Equal(t, schema.TypeNumber, mustGet(t, items, "widened").Type)
	assert.Equal(t, "true", mustGet(t, items, "flag").Type)
	mode := mustGet(t, items, "mode")
	require.Len(t, mode.TypeArgs, 2)
	assert.Equal(t, `"on"`, mode.TypeArgs[0].Type)
	assert.Equal(t, `"off"`, mode.TypeArgs[1].Type)
}

func TestGather_Parameters(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, "export function g(a = 1, b?: string, ...rest: number[]): void {}\n")
	g := mustGet(t, items, "g")
	require.Len(t, g.Params, 3)
	a, b, rest := g.Params[0], g.Params[1], g.Params[2]

	assert.Equal(t, "1", a.Default)
	assert.True(t, a.Optional)
	assert.Equal(t, schema.TypeNumber, a.Type)

	assert.True(t, b.Optional)
	assert.Empty(t, b.Default)
	assert.Equal(t, schema.TypeString, b.Type)

	assert.True(t, rest.Rest)
	assert.False(t, rest.Optional)
	assert.Equal(t, schema.TypeArray, rest.Type)
	assert.Nil(t, g.Returns)
}

func TestGather_Overloads(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, `export function f(a: string): string;
export function f(a: number): number;
export function f(a: any): any { return a; }
`)
	f := mustGet(t, items, "f")
	require.Len(t, f.Params, 1)
	assert.Equal(t, schema.TypeString, f.Params[0].Type)
	assert.Equal(t, schema.TypeString, f.Returns.Type)
}

func TestGather_Filtering(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, `/** @internal */
export const hidden = 1;
/** Not @internalish. */
export const shown = 2;
export class Box {
  private inner = 1;
  /** @internal */
  static secret(): void {}
  visible = 2;
}
`)
	assert.Equal(t, []string{"shown", "Box"}, items.Keys())
	box := mustGet(t, items, "Box")
	assert.Equal(t, []string{"visible"}, box.InstanceProperties.Keys())
	assert.Equal(t, 0, box.Properties.Len())
}

func TestGather_RecursiveAlias(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, "export type Tree = { value: number; children: Tree[] };\n")
	tree := mustGet(t, items, "Tree")
	assert.Equal(t, schema.KindTypeAlias, tree.Kind)
	assert.Equal(t, schema.TypeObject, tree.Type)
	children := mustGet(t, tree.Properties, "children")
	assert.Equal(t, "Tree.children", children.ID)
	assert.Equal(t, schema.TypeArray, children.Type)
	require.Len(t, children.TypeArgs, 1)
	assert.Equal(t, "Tree", children.TypeArgs[0].Type)
	assert.Equal(t, "index.ts", children.TypeArgs[0].TypeSource)
}

func TestGather_MaxDepth(t *testing.T) {
	t.Parallel()
	items := gatherSource(t, "export let o: { a: { b: number } };\n", WithMaxDepth(1))
	a := mustGet(t, mustGet(t, items, "o").Properties, "a")
	assert.Equal(t, schema.TypeObject, a.Type)
	assert.Nil(t, a.Properties)
}

func TestGather_Reexports(t *testing.T) {
	t.Parallel()
	items := gatherFiles(t, map[string]string{
		"index.ts": `export { Foo as Bar } from "./foo";
export { external } from "some-package";
export * from "./util";
`,
		"foo.ts":  "export class Foo {}\n",
		"util.ts": "export const answer = 42;\n",
	})
	assert.Equal(t, []string{"Bar", "external", "answer"}, items.Keys())

	bar := mustGet(t, items, "Bar")
	assert.Equal(t, schema.KindClass, bar.Kind)
	assert.Equal(t, "Bar", bar.ID)
	assert.Equal(t, "foo.ts", bar.Loc.File)
	assert.Nil(t, bar.Construct)

	ext := mustGet(t, items, "external")
	assert.Equal(t, schema.KindReexport, ext.Kind)
	assert.Equal(t, "external", ext.Type)
	assert.Empty(t, ext.TypeSource)

	assert.Equal(t, "42", mustGet(t, items, "answer").Type)
}

func TestGather_AnonymousDefaults(t *testing.T) {
	t.Parallel()
	items := gatherFiles(t, map[string]string{
		"index.ts": `export default function (a: string): number { return 1; }
export { default as Klass } from "./klass";
export { default as arrow } from "./arrow";
`,
		"klass.ts": "export default class {\n  x: number = 0;\n}\n",
		"arrow.ts": "export default (b: string) => b;\n",
	})
	assert.Equal(t, []string{"default", "Klass", "arrow"}, items.Keys())

	fn := mustGet(t, items, "default")
	assert.Equal(t, schema.KindFunction, fn.Kind)
	assert.Equal(t, schema.TypeFunction, fn.Type)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "default^a", fn.Params[0].ID)
	assert.Equal(t, schema.TypeNumber, fn.Returns.Type)

	klass := mustGet(t, items, "Klass")
	assert.Equal(t, schema.KindClass, klass.Kind)
	assert.Equal(t, schema.TypeClass, klass.Type)
	assert.Equal(t, "Klass.x", mustGet(t, klass.InstanceProperties, "x").ID)

	arrow := mustGet(t, items, "arrow")
	assert.Equal(t, schema.KindProperty, arrow.Kind)
	assert.Equal(t, schema.TypeFunction, arrow.Type)
}

func TestGather_MergesIntoExisting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	prog, err := program.Load(ctx, writeProject(t, map[string]string{"index.ts": "export let a: string;\n"}))
	require.NoError(t, err)

	seed := schema.NewItems()
	seed.Set("old", &schema.Item{Kind: schema.KindVariable, ID: "old", Type: schema.TypeAny})
	seed.Set("a", &schema.Item{Kind: schema.KindVariable, ID: "a", Type: schema.TypeAny})

	items, err := Gather(ctx, prog, seed)
	require.NoError(t, err)
	assert.Same(t, seed, items)
	assert.Equal(t, []string{"old", "a"}, items.Keys())
	assert.Equal(t, schema.TypeString, mustGet(t, items, "a").Type)
}

func TestGather_Errors(t *testing.T) {
	t.Parallel()
	_, err := tryGather(t, map[string]string{"index.ts": "export namespace NS { export const x = 1; }\n"})
	assert.ErrorIs(t, err, ErrUnclassifiable)

	_, err = tryGather(t, map[string]string{"index.ts": "export type C<T> = T extends string ? 1 : 2;\n"})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestGather_Deterministic(t *testing.T) {
	t.Parallel()
	src := `export interface Shape { area(): number; }
export class Square implements Shape {
  constructor(readonly side: number) {}
  area(): number { return this.side * this.side; }
}
export const unit = new Square(1);
`
	first, err := json.Marshal(gatherSource(t, src))
	require.NoError(t, err)
	second, err := json.Marshal(gatherSource(t, src))
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, string(first), string(second))

	var back schema.Items
	require.NoError(t, json.Unmarshal(first, &back))
	again, err := json.Marshal(&back)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(again))
}
