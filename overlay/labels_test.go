package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/testutil"
)

func TestBuildLabelIndex(t *testing.T) {
	labels := testutil.Labels{
		testutil.ID("A"): "Morals",
		testutil.ID("B"): "  Ethics ",
		testutil.ID("C"): "",
	}
	idx := BuildLabelIndex(testutil.IDs("A", "B", "C", "D"), labels, CollisionFirst)

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 0, idx.Collisions())

	id, ok := idx.LookupByLabel("morals")
	assert.True(t, ok)
	assert.Equal(t, testutil.ID("A"), id)

	id, ok = idx.LookupByLabel(" ETHICS")
	assert.True(t, ok)
	assert.Equal(t, testutil.ID("B"), id)

	_, ok = idx.LookupByLabel("")
	assert.False(t, ok)

	label, ok := idx.LookupLabel(testutil.ID("A"))
	assert.True(t, ok)
	assert.Equal(t, "Morals", label, "labels come back as written in the source")

	_, ok = idx.LookupLabel(testutil.ID("D"))
	assert.False(t, ok)
}

func TestBuildLabelIndex_Collisions(t *testing.T) {
	labels := testutil.Labels{
		testutil.ID("D2"): "Ethics",
		testutil.ID("D1"): "ethics",
		testutil.ID("D3"): "ETHICS",
	}
	ids := testutil.IDs("D3", "D1", "D2")

	tests := []struct {
		policy CollisionPolicy
		want   concept.ID
	}{
		{CollisionFirst, testutil.ID("D1")},
		{"", testutil.ID("D1")},
		{CollisionLast, testutil.ID("D3")},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			idx := BuildLabelIndex(ids, labels, tt.policy)
			got, ok := idx.LookupByLabel("ethics")
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 2, idx.Collisions())
			assert.Equal(t, 1, idx.Len())
		})
	}
}

func TestBuildLabelIndex_NilSource(t *testing.T) {
	idx := BuildLabelIndex(testutil.IDs("A"), nil, CollisionFirst)
	assert.Equal(t, 0, idx.Len())
	_, ok := idx.LookupLabel(testutil.ID("A"))
	assert.False(t, ok)
}

func TestCollisionPolicy_Validate(t *testing.T) {
	assert.NoError(t, CollisionFirst.Validate())
	assert.NoError(t, CollisionLast.Validate())
	assert.NoError(t, CollisionPolicy("").Validate())

	err := CollisionPolicy("shortest").Validate()
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	assert.True(t, errors.IsInvalid(err))
}
