// README: K-means model artifacts (JSON) and loaders for the embedded defaults or a directory.
package classifier

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
)

//go:embed models/*.json
var defaultModels embed.FS

// KMeans is a nearest-centroid model, optionally preceded by a standard scaler.
type KMeans struct {
	Features  []string    `json:"features"`
	Scaler    *Scaler     `json:"scaler,omitempty"`
	Centroids [][]float64 `json:"centroids"`
}

type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Predict returns the index of the closest centroid to x after scaling.
func (m *KMeans) Predict(x []float64) (int, error) {
	if len(x) != len(m.Features) {
		return 0, fmt.Errorf("%w: got %d values for %d features", ErrSchemaMismatch, len(x), len(m.Features))
	}
	v := x
	if m.Scaler != nil {
		v = make([]float64, len(x))
		for i := range x {
			v[i] = (x[i] - m.Scaler.Mean[i]) / m.Scaler.Scale[i]
		}
	}
	best, bestDist := -1, math.Inf(1)
	for i, c := range m.Centroids {
		var d float64
		for j := range c {
			diff := v[j] - c[j]
			d += diff * diff
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

func (m *KMeans) validate() error {
	n := len(m.Features)
	if n == 0 {
		return fmt.Errorf("no features")
	}
	if len(m.Centroids) == 0 {
		return fmt.Errorf("no centroids")
	}
	for i, c := range m.Centroids {
		if len(c) != n {
			return fmt.Errorf("centroid %d has %d dims, want %d", i, len(c), n)
		}
	}
	if m.Scaler != nil {
		if len(m.Scaler.Mean) != n || len(m.Scaler.Scale) != n {
			return fmt.Errorf("scaler dims do not match %d features", n)
		}
		for i, s := range m.Scaler.Scale {
			if s == 0 {
				return fmt.Errorf("scaler scale[%d] is zero", i)
			}
		}
	}
	return nil
}

// LoadDefault loads the artifacts compiled into the binary.
func LoadDefault() (*Adapter, error) {
	sub, err := fs.Sub(defaultModels, "models")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir loads <model_id>.json artifacts from dir.
func LoadDir(dir string) (*Adapter, error) {
	return Load(os.DirFS(dir))
}

// Load reads one artifact per model from fsys and checks its feature order
// against the adapter schema.
func Load(fsys fs.FS) (*Adapter, error) {
	models := make(map[ModelID]Predictor, len(Schemas))
	for id, schema := range Schemas {
		m, err := readKMeans(fsys, string(id)+".json")
		if err != nil {
			return nil, fmt.Errorf("load model %s: %w", id, err)
		}
		if !sameOrder(m.Features, schema) {
			return nil, fmt.Errorf("load model %s: %w: artifact features %v, want %v", id, ErrSchemaMismatch, m.Features, schema)
		}
		models[id] = m
	}
	return New(models)
}

func readKMeans(fsys fs.FS, name string) (*KMeans, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	var m KMeans
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &m, nil
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
