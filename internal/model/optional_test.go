package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalDistinguishesAbsentNullAndValue(t *testing.T) {
	var patch PersonPatch
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Alice","notes":null}`), &patch))

	assert.True(t, patch.Name.HasValue())
	assert.Equal(t, "Alice", patch.Name.Value)

	assert.True(t, patch.Notes.Set)
	assert.True(t, patch.Notes.Null)
	assert.Nil(t, patch.Notes.Ptr())

	assert.False(t, patch.Email.Set)
	assert.False(t, patch.FatherID.Set)
}

func TestPersonPatchColumns(t *testing.T) {
	var patch PersonPatch
	require.NoError(t, json.Unmarshal([]byte(`{"generation":3,"father_id":null,"spouse_id":7}`), &patch))

	cols := patch.Columns()
	assert.Equal(t, map[string]interface{}{
		"generation": 3,
		"father_id":  nil,
	}, cols)
	assert.Equal(t, uint(7), patch.SpouseID.Value)
}

func TestParentsPatchColumns(t *testing.T) {
	var patch ParentsPatch
	require.NoError(t, json.Unmarshal([]byte(`{"mother_id":5}`), &patch))
	assert.Equal(t, map[string]interface{}{"mother_id": uint(5)}, patch.Columns())
}

func TestOptionalRejectsWrongType(t *testing.T) {
	var patch PersonPatch
	assert.Error(t, json.Unmarshal([]byte(`{"generation":"three"}`), &patch))
}

func TestOptionalMarshal(t *testing.T) {
	out, err := json.Marshal(struct {
		A Optional[int]    `json:"a"`
		B Optional[string] `json:"b"`
	}{A: Some(2), B: Null[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2,"b":null}`, string(out))
}

func TestRelationshipTypeValid(t *testing.T) {
	for _, rt := range []RelationshipType{RelationParent, RelationChild, RelationSpouse, RelationSibling} {
		assert.True(t, rt.Valid(), rt)
	}
	assert.False(t, RelationshipType("cousin").Valid())
	assert.False(t, RelationshipType("").Valid())
}

func TestPersonHelpers(t *testing.T) {
	father := uint(1)
	p := Person{ID: 3, Gender: GenderMale, FatherID: &father}
	assert.True(t, p.IsMale())
	assert.True(t, p.HasParent())
	assert.True(t, p.IsChildOf(1))
	assert.False(t, p.IsChildOf(2))
}
