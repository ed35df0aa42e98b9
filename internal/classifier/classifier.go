// README: Classifier adapter; maps named features to a cluster id and the cluster to a fee decision.
package classifier

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"rideassist/internal/types"
)

type ModelID string

const (
	ModelDriver       ModelID = "driver"
	ModelRiderArrived ModelID = "rider_arrived"
	ModelRiderEarly   ModelID = "rider_early"
	ModelRiderLate    ModelID = "rider_late"
)

// Feature names shared by the adjudication policies and the model artifacts.
const (
	FeatureRiderRating           = "rider_rating"
	FeatureWaitTime              = "wait_time"
	FeatureRiderCancellationRate = "rider_cancellation_rate"
	FeatureDistanceFromPin       = "distance_from_pin"
	FeatureCancellationTime      = "cancellation_time"
)

var (
	ErrSchemaMismatch = errors.New("classifier feature schema mismatch")
	ErrUnknownModel   = errors.New("unknown classifier model")
)

// Features is a named feature vector; the adapter orders it per model schema.
type Features map[string]float64

// Schemas lists the ordered input features of every model.
var Schemas = map[ModelID][]string{
	ModelDriver:       {FeatureRiderRating, FeatureWaitTime},
	ModelRiderArrived: {FeatureRiderRating, FeatureWaitTime, FeatureRiderCancellationRate, FeatureDistanceFromPin},
	ModelRiderEarly:   {FeatureRiderCancellationRate},
	ModelRiderLate:    {FeatureRiderRating, FeatureCancellationTime, FeatureRiderCancellationRate},
}

// Mappings are per model. Equal cluster ids mean different things in different models.
var Mappings = map[ModelID]map[int]types.Decision{
	ModelDriver: {
		0: types.FeeWaived,
		1: types.BaseFee,
		2: types.BaseVariableFee,
	},
	ModelRiderArrived: {
		0: types.BaseFee,
		1: types.FeeWaived,
		2: types.BaseVariableFee,
	},
	ModelRiderEarly: {
		0: types.BaseFee,
		1: types.FeeWaived,
	},
	ModelRiderLate: {
		0: types.BaseVariableFee,
		1: types.FeeWaived,
		2: types.BaseFee,
	},
}

// Predictor is a loaded clustering model: ordered feature values in, cluster id out.
type Predictor interface {
	Predict(x []float64) (int, error)
}

type Adapter struct {
	models map[ModelID]Predictor
}

// New requires a predictor for every model in Schemas.
func New(models map[ModelID]Predictor) (*Adapter, error) {
	for id := range Schemas {
		if models[id] == nil {
			return nil, fmt.Errorf("%w: %s not loaded", ErrUnknownModel, id)
		}
	}
	m := make(map[ModelID]Predictor, len(models))
	for id, p := range models {
		m[id] = p
	}
	return &Adapter{models: m}, nil
}

// Predict validates features against the model schema, runs the model and maps
// the cluster. Clusters without a mapping fall back to fee waived.
func (a *Adapter) Predict(id ModelID, features Features) (types.Decision, error) {
	model, ok := a.models[id]
	schema, known := Schemas[id]
	if !ok || !known {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	x, err := vector(schema, features)
	if err != nil {
		return "", fmt.Errorf("model %s: %w", id, err)
	}
	cluster, err := model.Predict(x)
	if err != nil {
		return "", fmt.Errorf("model %s predict: %w", id, err)
	}
	decision, ok := Mappings[id][cluster]
	if !ok {
		slog.Warn("unmapped cluster, defaulting to fee waived", "model", id, "cluster", cluster)
		return types.FeeWaived, nil
	}
	return decision, nil
}

func vector(schema []string, features Features) ([]float64, error) {
	var missing []string
	x := make([]float64, len(schema))
	for i, name := range schema {
		v, ok := features[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		x[i] = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	if len(features) != len(schema) {
		var extra []string
		for name := range features {
			if !contains(schema, name) {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		return nil, fmt.Errorf("%w: unexpected %s", ErrSchemaMismatch, strings.Join(extra, ", "))
	}
	return x, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
