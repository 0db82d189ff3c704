package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sample() *Items {
	point := &Item{
		Kind:        KindClass,
		ID:          "Point",
		Description: "* A point. ",
		Loc:         &Loc{File: "index.ts", Line: 2, Column: 0},
		Type:        TypeClass,
		Construct:   &Item{Kind: KindConstructor, ID: "Point^constructor", Type: TypeFunction, Params: []*Item{}},
	}
	point.InstanceProperties = NewItems()
	point.InstanceProperties.Set("y", &Item{Kind: KindProperty, ID: "Point.y", Type: TypeNumber})
	point.InstanceProperties.Set("x", &Item{Kind: KindProperty, ID: "Point.x", Type: TypeNumber, Readonly: true})

	items := NewItems()
	items.Set("zeta", &Item{Kind: KindVariable, ID: "zeta", Type: TypeString})
	items.Set("Point", point)
	items.Set("alpha", &Item{
		Kind: KindFunction, ID: "alpha", Type: TypeFunction,
		Params:  []*Item{{Name: "a", ID: "alpha^a", Type: TypeUnion, TypeArgs: []*Item{{Type: TypeString}, {Type: `"x"`}}}},
		Returns: &Item{Type: "Point", TypeSource: "index.ts"},
	})
	return items
}

func TestItems_Order(t *testing.T) {
	t.Parallel()
	items := sample()
	assert.Equal(t, []string{"zeta", "Point", "alpha"}, items.Keys())

	items.Set("Point", &Item{Type: TypeAny})
	assert.Equal(t, []string{"zeta", "Point", "alpha"}, items.Keys(), "replacing keeps position")
	it, ok := items.Get("Point")
	require.True(t, ok)
	assert.Equal(t, TypeAny, it.Type)
}

func TestItems_NilSafe(t *testing.T) {
	t.Parallel()
	var items *Items
	assert.Zero(t, items.Len())
	assert.Nil(t, items.Keys())
	_, ok := items.Get("x")
	assert.False(t, ok)
	for range items.All() {
		t.Fatal("nil mapping yielded an entry")
	}
}

func TestItems_MergeAndFilter(t *testing.T) {
	t.Parallel()
	items := sample()
	other := NewItems()
	other.Set("alpha", &Item{Type: TypeAny})
	other.Set("omega", &Item{Type: TypeNever})
	items.Merge(other)
	assert.Equal(t, []string{"zeta", "Point", "alpha", "omega"}, items.Keys())

	filtered, err := items.Filter(func(_ string, it *Item) (bool, error) {
		return it.Kind != "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "Point"}, filtered.Keys())
}

func TestItems_JSON(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(sample())
	require.NoError(t, err)

	s := string(data)
	assert.Less(t, strings.Index(s, `"zeta"`), strings.Index(s, `"Point"`))
	assert.Less(t, strings.Index(s, `"Point"`), strings.Index(s, `"alpha"`))
	assert.Less(t, strings.Index(s, `"y"`), strings.Index(s, `"x"`))
	assert.Contains(t, s, `"params":[]`)
	assert.Contains(t, s, `"type":"\"x\""`)
	assert.NotContains(t, s, `"kind":""`)

	var back Items
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, sample().Keys(), back.Keys())
	again, err := json.Marshal(&back)
	require.NoError(t, err)
	assert.Equal(t, s, string(again))

	point, _ := back.Get("Point")
	assert.NotNil(t, point.Construct.Params)
	zeta, _ := back.Get("zeta")
	assert.Nil(t, zeta.Params)
}

func TestItems_JSONRejectsArray(t *testing.T) {
	t.Parallel()
	var items Items
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &items))
}

func TestItems_YAML(t *testing.T) {
	t.Parallel()
	data, err := yaml.Marshal(sample())
	require.NoError(t, err)

	s := string(data)
	assert.Less(t, strings.Index(s, "zeta:"), strings.Index(s, "Point:"))
	assert.Less(t, strings.Index(s, "Point:"), strings.Index(s, "alpha:"))

	var back Items
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, sample().Keys(), back.Keys())
	point, ok := back.Get("Point")
	require.True(t, ok)
	assert.Equal(t, []string{"y", "x"}, point.InstanceProperties.Keys())
	assert.Equal(t, &Loc{File: "index.ts", Line: 2, Column: 0}, point.Loc)
}

func TestItems_YAMLKeepsEmptyParams(t *testing.T) {
	t.Parallel()
	data, err := yaml.Marshal(sample())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "params: []"))

	var back Items
	require.NoError(t, yaml.Unmarshal(data, &back))
	point, _ := back.Get("Point")
	require.NotNil(t, point.Construct.Params)
	assert.Empty(t, point.Construct.Params)
	zeta, _ := back.Get("zeta")
	assert.Nil(t, zeta.Params)
}

func TestItem_Walk(t *testing.T) {
	t.Parallel()
	point, _ := sample().Get("Point")
	var ids []string
	point.Walk("", func(parentID string, it *Item) {
		ids = append(ids, parentID+">"+it.ID)
	})
	assert.Equal(t, []string{">Point", "Point>Point^constructor", "Point>Point.y", "Point>Point.x"}, ids)
}
