package rules

import (
	"github.com/okian/argos/internal/domain/model"
	"github.com/okian/argos/internal/domain/types"
)

const lossSlack = 1e-9

type spliceLossRule struct {
	thresholdDb float64
}

// SpliceLoss flags splice events whose attenuation is at or above
// thresholdDb. A splice without a readable attenuation is flagged too.
func SpliceLoss(thresholdDb float64) Rule {
	return &spliceLossRule{thresholdDb: thresholdDb}
}

func (r *spliceLossRule) Name() string { return "splice_loss" }

func (r *spliceLossRule) Check(ds model.Dataset) []model.Anomaly {
	var out []model.Anomaly
	for _, e := range ds.Events {
		if e.Type != model.Splice {
			continue
		}
		if loss, ok := e.AttenuationDb.Get(); ok && loss < r.thresholdDb-lossSlack {
			continue
		}
		out = append(out, model.Anomaly{
			Kind: KindSpliceLoss,
			Fields: []model.Field{
				{Column: model.ColFile, Value: types.Text(e.FileID)},
				{Column: model.ColMetaName, Value: types.TextOrAbsent(e.EmbeddedName)},
				{Column: model.ColEvent, Value: types.Integer(int64(e.Index))},
				{Column: model.ColEventType, Value: types.Text(e.Label())},
				{Column: model.ColDistance, Value: types.FromFloat(e.DistanceKm)},
				{Column: model.ColAttenuation, Value: types.FromFloat(e.AttenuationDb)},
			},
		})
	}
	return out
}
