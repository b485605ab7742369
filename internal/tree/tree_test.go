package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree_go/internal/model"
)

func ref(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func person(id uint, name string, gender model.Gender, gen int, father, mother, spouse uint) model.Person {
	return model.Person{
		ID:         id,
		Name:       name,
		Gender:     gender,
		Generation: gen,
		IsAlive:    true,
		FatherID:   ref(father),
		MotherID:   ref(mother),
		SpouseID:   ref(spouse),
	}
}

// 1-2 夫妻，3 与 4 为子女
func coupleWithTwoChildren() []model.Person {
	return []model.Person{
		person(1, "Bob", model.GenderMale, 1, 0, 0, 2),
		person(2, "Alice", model.GenderFemale, 1, 0, 0, 1),
		person(3, "Carol", model.GenderMale, 2, 1, 2, 0),
		person(4, "Dana", model.GenderFemale, 2, 1, 2, 0),
	}
}

func ids(people []model.Person) []uint {
	out := make([]uint, 0, len(people))
	for _, p := range people {
		out = append(out, p.ID)
	}
	return out
}

func TestBuildEmpty(t *testing.T) {
	layout := Build(nil, nil)
	assert.Nil(t, layout.Level)
	assert.Empty(t, layout.UnrenderedIDs)
	assert.Empty(t, layout.Persons())
}

func TestBuildCoupleWithTwoChildren(t *testing.T) {
	layout := Build(coupleWithTwoChildren(), nil)
	require.NotNil(t, layout.Level)
	assert.Equal(t, 1, layout.RootGeneration)
	require.Len(t, layout.Level.Units, 1)

	unit := layout.Level.Units[0]
	require.NotNil(t, unit.Couple.Husband)
	require.NotNil(t, unit.Couple.Wife)
	assert.Equal(t, uint(1), unit.Couple.Husband.ID)
	assert.Equal(t, uint(2), unit.Couple.Wife.ID)
	assert.Equal(t, ClassHasChildren, unit.Couple.Class)

	require.NotNil(t, unit.Children)
	assert.True(t, unit.Children.Multiple)
	require.Len(t, unit.Children.Wrappers, 2)

	son := unit.Children.Wrappers[0]
	require.NotNil(t, son.Couple.Husband)
	assert.Equal(t, uint(3), son.Couple.Husband.ID)
	assert.Nil(t, son.Couple.Wife)
	assert.Equal(t, ClassNoChildren, son.Couple.Class)
	assert.Nil(t, son.Children)

	daughter := unit.Children.Wrappers[1]
	require.NotNil(t, daughter.Couple.Wife)
	assert.Equal(t, uint(4), daughter.Couple.Wife.ID)
	assert.Nil(t, daughter.Couple.Husband)

	assert.Empty(t, layout.UnrenderedIDs)
	assert.Equal(t, []uint{1, 2, 3, 4}, layout.Persons())
}

func TestBuildWifeListedFirst(t *testing.T) {
	people := []model.Person{
		person(2, "Alice", model.GenderFemale, 1, 0, 0, 1),
		person(1, "Bob", model.GenderMale, 1, 0, 0, 2),
	}
	layout := Build(people, nil)
	require.Len(t, layout.Level.Units, 1)
	assert.Equal(t, uint(1), layout.Level.Units[0].Couple.Husband.ID)
	assert.Equal(t, uint(2), layout.Level.Units[0].Couple.Wife.ID)
	assert.Equal(t, ClassNoChildren, layout.Level.Units[0].Couple.Class)
}

func TestBuildSingleChildNotMultiple(t *testing.T) {
	people := []model.Person{
		person(1, "Bob", model.GenderMale, 1, 0, 0, 0),
		person(2, "Eve", model.GenderOther, 2, 1, 0, 0),
	}
	layout := Build(people, nil)
	unit := layout.Level.Units[0]
	require.NotNil(t, unit.Children)
	assert.False(t, unit.Children.Multiple)
	require.Len(t, unit.Children.Wrappers, 1)
	// 非男性子女放在妻子位
	require.NotNil(t, unit.Children.Wrappers[0].Couple.Wife)
	assert.Equal(t, uint(2), unit.Children.Wrappers[0].Couple.Wife.ID)
}

func TestBuildChildSpouseFromOutsideLineage(t *testing.T) {
	people := append(coupleWithTwoChildren(),
		person(5, "Erin", model.GenderFemale, 2, 0, 0, 3),
		person(6, "Finn", model.GenderMale, 3, 3, 5, 0),
	)
	people[2].SpouseID = ref(5)

	layout := Build(people, nil)
	son := layout.Level.Units[0].Children.Wrappers[0]
	require.NotNil(t, son.Couple.Wife)
	assert.Equal(t, uint(5), son.Couple.Wife.ID)
	assert.Equal(t, ClassHasChildren, son.Couple.Class)
	require.Len(t, son.Children.Wrappers, 1)
	assert.Equal(t, uint(6), son.Children.Wrappers[0].Couple.Husband.ID)
	assert.Empty(t, layout.UnrenderedIDs)
}

func TestBuildRootHighlight(t *testing.T) {
	root := uint(3)
	layout := Build(coupleWithTwoChildren(), &root)
	unit := layout.Level.Units[0]
	assert.False(t, unit.Couple.Husband.IsRoot)
	assert.False(t, unit.Couple.Wife.IsRoot)
	assert.True(t, unit.Children.Wrappers[0].Couple.Husband.IsRoot)
	assert.False(t, unit.Children.Wrappers[1].Couple.Wife.IsRoot)
}

func TestBuildUnreachable(t *testing.T) {
	people := append(coupleWithTwoChildren(),
		person(7, "Gus", model.GenderMale, 3, 0, 0, 0),
	)
	layout := Build(people, nil)
	assert.Equal(t, []uint{7}, layout.UnrenderedIDs)
}

func TestBuildCycleEmitsEachOnce(t *testing.T) {
	people := []model.Person{
		person(1, "A", model.GenderMale, 1, 2, 0, 0),
		person(2, "B", model.GenderMale, 1, 1, 0, 0),
	}
	layout := Build(people, nil)
	assert.ElementsMatch(t, []uint{1, 2}, layout.Persons())
	assert.Empty(t, layout.UnrenderedIDs)
}

// 1-2 祖父母，3-4 父母，5-6 子女，7 为5的配偶，8 为孙辈
func threeGenerations() []model.Person {
	return []model.Person{
		person(1, "Grandpa", model.GenderMale, 1, 0, 0, 2),
		person(2, "Grandma", model.GenderFemale, 1, 0, 0, 1),
		person(3, "Dad", model.GenderMale, 2, 1, 2, 4),
		person(4, "Mom", model.GenderFemale, 2, 0, 0, 3),
		person(5, "Kid", model.GenderMale, 3, 3, 4, 7),
		person(6, "Kid2", model.GenderFemale, 3, 3, 4, 0),
		person(7, "InLaw", model.GenderFemale, 3, 0, 0, 5),
		person(8, "GrandKid", model.GenderFemale, 4, 5, 7, 0),
	}
}

func TestTraverseDepthZero(t *testing.T) {
	got := Traverse(threeGenerations(), 3, 0)
	require.NotEmpty(t, got)
	assert.Equal(t, uint(3), got[0].ID)
	assert.ElementsMatch(t, []uint{3, 4, 5, 6, 7, 8}, ids(got))
	assert.NotContains(t, ids(got), uint(1))
	assert.NotContains(t, ids(got), uint(2))
}

func TestTraverseDepthOneReachesParents(t *testing.T) {
	got := Traverse(threeGenerations(), 3, 1)
	assert.ElementsMatch(t, []uint{1, 2, 3, 4, 5, 6, 7, 8}, ids(got))
}

func TestTraverseFromLeafRespectsBudget(t *testing.T) {
	// 8 -> 5,7 (预算0) 不再向上
	got := Traverse(threeGenerations(), 8, 1)
	assert.ElementsMatch(t, []uint{8, 5, 7}, ids(got))
}

func TestTraverseUnknownRoot(t *testing.T) {
	assert.Empty(t, Traverse(threeGenerations(), 99, DefaultDepth))
}

func TestTraverseCycle(t *testing.T) {
	people := []model.Person{
		person(1, "A", model.GenderMale, 1, 2, 0, 2),
		person(2, "B", model.GenderMale, 1, 1, 0, 1),
	}
	got := Traverse(people, 1, DefaultDepth)
	assert.ElementsMatch(t, []uint{1, 2}, ids(got))
}
