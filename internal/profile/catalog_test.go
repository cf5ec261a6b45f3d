package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/appraisal-cli/internal/model"
)

func TestCatalog_Builtins(t *testing.T) {
	c := NewCatalog()

	p, err := c.Resolve("industrial_default")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p.WeightSum(), WeightTolerance)
	assert.Len(t, p.Attributes, 6)
	assert.Equal(t, model.CloserToSubject, p.Attributes["building_sf"].Direction)

	p, err = c.Resolve("office_default")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p.WeightSum(), WeightTolerance)
}

func TestCatalog_Resolve_Unknown(t *testing.T) {
	c := NewCatalog()
	_, err := c.Resolve("retail_default")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown profile")
}

func TestCatalog_LoadDir(t *testing.T) {
	dir := t.TempDir()
	doc := `
profiles:
  - name: flex_default
    attributes:
      clear_height: {weight: 0.5, direction: higher_is_better}
      building_sf:  {weight: 0.5, direction: closer_to_subject}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flex.yaml"), []byte(doc), 0o644))

	c := NewCatalog()
	require.NoError(t, c.LoadDir(dir))

	p, err := c.Resolve("flex_default")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p.WeightSum(), WeightTolerance)
	assert.Contains(t, c.Names(), "flex_default")
	assert.Contains(t, c.Names(), "industrial_default")
}

func TestCatalog_LoadDir_InvalidProfile(t *testing.T) {
	dir := t.TempDir()
	doc := `
profiles:
  - name: broken
    attributes:
      a: {weight: 0.9, direction: higher_is_better}
      b: {weight: 0.3, direction: lower_is_better}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(doc), 0o644))

	c := NewCatalog()
	err := c.LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights sum")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile model.WeightProfile
		wantErr string
	}{
		{
			name: "valid",
			profile: model.WeightProfile{
				Name: "ok",
				Attributes: map[string]model.AttributeWeight{
					"a": {Weight: 0.7, Direction: model.HigherIsBetter},
					"b": {Weight: 0.3, Direction: model.CloserToSubject},
				},
			},
		},
		{
			name:    "empty",
			profile: model.WeightProfile{Name: "empty"},
			wantErr: "at least one attribute",
		},
		{
			name: "bad direction",
			profile: model.WeightProfile{
				Name: "bad",
				Attributes: map[string]model.AttributeWeight{
					"a": {Weight: 1.0, Direction: "sideways"},
				},
			},
			wantErr: "unknown direction",
		},
		{
			name: "zero weight",
			profile: model.WeightProfile{
				Name: "zero",
				Attributes: map[string]model.AttributeWeight{
					"a": {Weight: 0, Direction: model.HigherIsBetter},
					"b": {Weight: 1.0, Direction: model.HigherIsBetter},
				},
			},
			wantErr: "outside (0,1]",
		},
		{
			name: "sum off",
			profile: model.WeightProfile{
				Name: "off",
				Attributes: map[string]model.AttributeWeight{
					"a": {Weight: 0.5, Direction: model.HigherIsBetter},
					"b": {Weight: 0.6, Direction: model.HigherIsBetter},
				},
			},
			wantErr: "weights sum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.profile)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestEffective_DropAndRenormalize(t *testing.T) {
	p := model.WeightProfile{
		Name: "test",
		Attributes: map[string]model.AttributeWeight{
			"a": {Weight: 0.5, Direction: model.HigherIsBetter},
			"b": {Weight: 0.3, Direction: model.LowerIsBetter},
			"c": {Weight: 0.2, Direction: model.HigherIsBetter},
		},
	}
	props := []model.PropertyRecord{
		{ID: model.SubjectID, Attributes: map[string]any{"a": 1.0, "b": 2.0, "c": 3.0}},
		{ID: "COMP_1", Attributes: map[string]any{"a": 1.0, "b": 2.0}}, // c missing
	}

	eff, dropped := Effective(&p, props)
	assert.Equal(t, []string{"c"}, dropped)
	assert.Len(t, eff.Attributes, 2)
	assert.InDelta(t, 1.0, eff.WeightSum(), WeightTolerance)
	assert.InDelta(t, 0.625, eff.Attributes["a"].Weight, 1e-9)
	assert.InDelta(t, 0.375, eff.Attributes["b"].Weight, 1e-9)

	// Original profile untouched.
	assert.Len(t, p.Attributes, 3)
	assert.InDelta(t, 0.5, p.Attributes["a"].Weight, 1e-9)
}

func TestEffective_NothingDropped(t *testing.T) {
	p := model.WeightProfile{
		Name: "test",
		Attributes: map[string]model.AttributeWeight{
			"a": {Weight: 1.0, Direction: model.HigherIsBetter},
		},
	}
	props := []model.PropertyRecord{
		{ID: model.SubjectID, Attributes: map[string]any{"a": 1.0}},
	}

	eff, dropped := Effective(&p, props)
	assert.Nil(t, dropped)
	assert.Equal(t, &p, eff)
}
