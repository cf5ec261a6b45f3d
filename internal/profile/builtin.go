package profile

import "github.com/sells-group/appraisal-cli/internal/model"

// conditionScale is the standard five-level condition scale, version
// 2024.1. Ingest resolves condition strings through this table; there
// is no implicit string ordering anywhere in the pipeline.
var conditionScale = model.OrdinalScale{
	Version: "2024.1",
	Levels: map[string]float64{
		"excellent": 5,
		"good":      4,
		"average":   3,
		"fair":      2,
		"poor":      1,
	},
}

var locationScale = model.OrdinalScale{
	Version: "2024.1",
	Levels: map[string]float64{
		"prime":   5,
		"strong":  4,
		"average": 3,
		"weak":    2,
		"poor":    1,
	},
}

// builtins returns the profiles shipped with the binary. Catalog files
// may override them by name.
func builtins() []model.WeightProfile {
	return []model.WeightProfile{
		{
			Name: "industrial_default",
			Attributes: map[string]model.AttributeWeight{
				"clear_height":      {Weight: 0.24, Direction: model.HigherIsBetter},
				"year_built":        {Weight: 0.15, Direction: model.HigherIsBetter},
				"condition":         {Weight: 0.21, Direction: model.HigherIsBetter},
				"location_quality":  {Weight: 0.18, Direction: model.HigherIsBetter},
				"building_sf":       {Weight: 0.10, Direction: model.CloserToSubject},
				"office_finish_pct": {Weight: 0.12, Direction: model.LowerIsBetter},
			},
			Ordinals: map[string]model.OrdinalScale{
				"condition":        conditionScale,
				"location_quality": locationScale,
			},
		},
		{
			Name: "office_default",
			Attributes: map[string]model.AttributeWeight{
				"year_built":       {Weight: 0.20, Direction: model.HigherIsBetter},
				"condition":        {Weight: 0.25, Direction: model.HigherIsBetter},
				"location_quality": {Weight: 0.30, Direction: model.HigherIsBetter},
				"building_sf":      {Weight: 0.15, Direction: model.CloserToSubject},
				"parking_ratio":    {Weight: 0.10, Direction: model.HigherIsBetter},
			},
			Ordinals: map[string]model.OrdinalScale{
				"condition":        conditionScale,
				"location_quality": locationScale,
			},
		},
	}
}
