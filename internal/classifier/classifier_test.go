package classifier

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideassist/internal/types"
)

// fixedPredictor returns a preset cluster and records the vector it was given.
type fixedPredictor struct {
	cluster int
	err     error
	got     []float64
}

func (p *fixedPredictor) Predict(x []float64) (int, error) {
	p.got = append([]float64(nil), x...)
	return p.cluster, p.err
}

func newFixedAdapter(t *testing.T, clusters map[ModelID]int) (*Adapter, map[ModelID]*fixedPredictor) {
	t.Helper()
	preds := make(map[ModelID]*fixedPredictor)
	models := make(map[ModelID]Predictor)
	for id := range Schemas {
		p := &fixedPredictor{cluster: clusters[id]}
		preds[id] = p
		models[id] = p
	}
	a, err := New(models)
	require.NoError(t, err)
	return a, preds
}

func TestNewRequiresEveryModel(t *testing.T) {
	_, err := New(map[ModelID]Predictor{ModelDriver: &fixedPredictor{}})
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestPredictOrdersFeaturesBySchema(t *testing.T) {
	a, preds := newFixedAdapter(t, map[ModelID]int{ModelRiderArrived: 2})

	got, err := a.Predict(ModelRiderArrived, Features{
		FeatureDistanceFromPin:       40,
		FeatureRiderRating:           4.5,
		FeatureRiderCancellationRate: 12.5,
		FeatureWaitTime:              6,
	})
	require.NoError(t, err)
	assert.Equal(t, types.BaseVariableFee, got)
	assert.Equal(t, []float64{4.5, 6, 12.5, 40}, preds[ModelRiderArrived].got)
}

func TestPredictMissingFeature(t *testing.T) {
	a, preds := newFixedAdapter(t, nil)
	_, err := a.Predict(ModelDriver, Features{FeatureRiderRating: 4.2})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Nil(t, preds[ModelDriver].got, "model must not run on a bad schema")
}

func TestPredictUnexpectedFeature(t *testing.T) {
	a, _ := newFixedAdapter(t, nil)
	_, err := a.Predict(ModelRiderEarly, Features{
		FeatureRiderCancellationRate: 10,
		FeatureRiderRating:           4.0,
	})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestPredictUnknownModel(t *testing.T) {
	a, _ := newFixedAdapter(t, nil)
	_, err := a.Predict("surge", Features{})
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestPredictUnmappedClusterIsWaived(t *testing.T) {
	// rider_early only maps clusters 0 and 1.
	a, _ := newFixedAdapter(t, map[ModelID]int{ModelRiderEarly: 2, ModelDriver: 7})

	got, err := a.Predict(ModelRiderEarly, Features{FeatureRiderCancellationRate: 50})
	require.NoError(t, err)
	assert.Equal(t, types.FeeWaived, got)

	got, err = a.Predict(ModelDriver, Features{FeatureRiderRating: 3, FeatureWaitTime: 9})
	require.NoError(t, err)
	assert.Equal(t, types.FeeWaived, got)
}

func TestPredictPropagatesModelError(t *testing.T) {
	a, preds := newFixedAdapter(t, nil)
	boom := errors.New("boom")
	preds[ModelRiderEarly].err = boom
	_, err := a.Predict(ModelRiderEarly, Features{FeatureRiderCancellationRate: 1})
	assert.ErrorIs(t, err, boom)
}

func TestMappingsAreIndependentPerModel(t *testing.T) {
	cases := []struct {
		model ModelID
		want  types.Decision
	}{
		{ModelDriver, types.FeeWaived},
		{ModelRiderArrived, types.BaseFee},
		{ModelRiderEarly, types.BaseFee},
		{ModelRiderLate, types.BaseVariableFee},
	}
	for _, tc := range cases {
		t.Run(string(tc.model), func(t *testing.T) {
			assert.Equal(t, tc.want, Mappings[tc.model][0])
		})
	}
}

func TestKMeansNearestCentroidWithScaler(t *testing.T) {
	m := &KMeans{
		Features:  []string{"a", "b"},
		Scaler:    &Scaler{Mean: []float64{10, 0}, Scale: []float64{5, 1}},
		Centroids: [][]float64{{0, 0}, {2, 2}},
	}
	require.NoError(t, m.validate())

	c, err := m.Predict([]float64{10, 0.1})
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	c, err = m.Predict([]float64{20, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	_, err = m.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestKMeansValidate(t *testing.T) {
	bad := []*KMeans{
		{},
		{Features: []string{"a"}},
		{Features: []string{"a"}, Centroids: [][]float64{{1, 2}}},
		{Features: []string{"a"}, Centroids: [][]float64{{1}}, Scaler: &Scaler{Mean: []float64{0}, Scale: []float64{0}}},
	}
	for i, m := range bad {
		assert.Error(t, m.validate(), "case %d", i)
	}
}

func TestLoadDefaultArtifacts(t *testing.T) {
	a, err := LoadDefault()
	require.NoError(t, err)

	cases := []struct {
		name     string
		model    ModelID
		features Features
		want     types.Decision
	}{
		{"driver short wait high rating", ModelDriver, Features{FeatureRiderRating: 4.9, FeatureWaitTime: 3}, types.FeeWaived},
		{"driver mid wait", ModelDriver, Features{FeatureRiderRating: 4.2, FeatureWaitTime: 5}, types.BaseFee},
		{"driver long wait", ModelDriver, Features{FeatureRiderRating: 4.3, FeatureWaitTime: 9}, types.BaseVariableFee},
		{"rider early reliable", ModelRiderEarly, Features{FeatureRiderCancellationRate: 2}, types.FeeWaived},
		{"rider early habitual", ModelRiderEarly, Features{FeatureRiderCancellationRate: 40}, types.BaseFee},
		{"rider late habitual", ModelRiderLate, Features{
			FeatureRiderRating: 3.5, FeatureCancellationTime: 20, FeatureRiderCancellationRate: 30,
		}, types.BaseVariableFee},
		{"rider arrived reliable", ModelRiderArrived, Features{
			FeatureRiderRating: 4.9, FeatureWaitTime: 2, FeatureRiderCancellationRate: 3, FeatureDistanceFromPin: 90,
		}, types.FeeWaived},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := a.Predict(tc.model, tc.features)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoadRejectsFeatureOrderMismatch(t *testing.T) {
	fsys := fstest.MapFS{}
	for id, schema := range Schemas {
		features := `["` + schema[0] + `"`
		for _, f := range schema[1:] {
			features += `,"` + f + `"`
		}
		features += `]`
		if id == ModelDriver {
			features = `["wait_time","rider_rating"]`
		}
		centroid := "["
		for i := range schema {
			if i > 0 {
				centroid += ","
			}
			centroid += "0"
		}
		centroid += "]"
		fsys[string(id)+".json"] = &fstest.MapFile{
			Data: []byte(`{"features":` + features + `,"centroids":[` + centroid + `]}`),
		}
	}
	_, err := Load(fsys)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestLoadDirMissingArtifact(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "driver.json"),
		[]byte(`{"features":["rider_rating","wait_time"],"centroids":[[0,0]]}`), 0o644))
	_, err := LoadDir(dir)
	assert.Error(t, err)
}
