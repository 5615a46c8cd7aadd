package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"estymator/internal/config"
)

func testModelsConfig() config.Models {
	return config.Models{
		Dir:          "testdata",
		EnsembleFile: "ensemble.json",
		RFFile:       "valuation_rf.json",
		XGBFile:      "valuation_xgb.json",
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	r := Load(context.Background(), testModelsConfig())

	rq.Equal("estymatorai-v2.1-0.79pct", r.Version())
	rq.Equal(map[string]bool{"ensemble": true, "rf": true, "xgb": true}, r.Loaded())

	bundle, ok := r.Ensemble()
	rq.True(ok)
	rq.InDelta(0.0079, bundle.MAPE, 1e-12)
	rq.Equal([]string{"lgb", "rf"}, bundle.ModelNames())
}

func TestLoadMissingArtifacts(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	cfg := testModelsConfig()
	cfg.Dir = "testdata/nonexistent"

	r := Load(context.Background(), cfg)

	rq.Equal(DefaultModelVersion, r.Version())
	rq.Equal(map[string]bool{"ensemble": false, "rf": false, "xgb": false}, r.Loaded())

	_, ok := r.Ensemble()
	rq.False(ok)
	_, ok = r.Primary()
	rq.False(ok)
	_, ok = r.Secondary()
	rq.False(ok)
}

func TestLoadBrokenArtifact(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	cfg := testModelsConfig()
	cfg.EnsembleFile = "broken.json"

	r := Load(context.Background(), cfg)

	// Битый бандл отключает ансамбль, но не мешает загрузке остальных.
	rq.Equal(DefaultModelVersion, r.Version())
	rq.Equal(map[string]bool{"ensemble": false, "rf": true, "xgb": true}, r.Loaded())
}

func TestBundleMemberPredictions(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	r := Load(context.Background(), testModelsConfig())

	bundle, ok := r.Ensemble()
	rq.True(ok)

	// area=60, rooms=3: rf усредняет листья двух деревьев, lgb складывает
	// вклады с базовым скором.
	rf, err := bundle.Models["rf"].Predict([]float64{60, 3})
	rq.NoError(err)
	rq.InDelta(505000.0, rf, 1e-9)

	lgb, err := bundle.Models["lgb"].Predict([]float64{60, 3})
	rq.NoError(err)
	rq.InDelta(520000.0, lgb, 1e-9)
}

func TestSingleModelPredictions(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	r := Load(context.Background(), testModelsConfig())

	primary, ok := r.Primary()
	rq.True(ok)
	rq.Equal([]string{"area", "rooms", "floor"}, primary.Est.Schema())

	pred, err := primary.Est.Predict([]float64{60, 3, 2})
	rq.NoError(err)
	rq.InDelta(470000.0, pred, 1e-9)

	secondary, ok := r.Secondary()
	rq.True(ok)

	pred, err = secondary.Est.Predict([]float64{60, 3, 2})
	rq.NoError(err)
	rq.InDelta(504000.0, pred, 1e-9)
}

func TestPredictWrongValueCount(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	r := Load(context.Background(), testModelsConfig())

	primary, ok := r.Primary()
	rq.True(ok)

	_, err := primary.Est.Predict([]float64{60})
	rq.Error(err)
}

func TestBuildEstimatorValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec estimatorSpec
	}{
		{
			name: "no name",
			spec: estimatorSpec{Type: artifactLinear, Schema: []string{"a"}, Weights: []float64{1}},
		},
		{
			name: "empty schema",
			spec: estimatorSpec{Name: "m", Type: artifactLinear, Weights: []float64{1}},
		},
		{
			name: "weights do not match schema",
			spec: estimatorSpec{Name: "m", Type: artifactLinear, Schema: []string{"a", "b"}, Weights: []float64{1}},
		},
		{
			name: "unknown type",
			spec: estimatorSpec{Name: "m", Type: "catboost", Schema: []string{"a"}},
		},
		{
			name: "tree ensemble without trees",
			spec: estimatorSpec{Name: "m", Type: artifactTreeEnsemble, Schema: []string{"a"}, Aggregation: aggregationMean},
		},
		{
			name: "unknown aggregation",
			spec: estimatorSpec{
				Name: "m", Type: artifactTreeEnsemble, Schema: []string{"a"}, Aggregation: "median",
				Trees: []treeSpec{{Nodes: []nodeSpec{{Left: -1, Value: 1}}}},
			},
		},
		{
			name: "feature index out of schema",
			spec: estimatorSpec{
				Name: "m", Type: artifactTreeEnsemble, Schema: []string{"a"}, Aggregation: aggregationMean,
				Trees: []treeSpec{{Nodes: []nodeSpec{
					{Feature: 5, Threshold: 1, Left: 1, Right: 2},
					{Left: -1, Value: 1},
					{Left: -1, Value: 2},
				}}},
			},
		},
		{
			name: "child index before parent",
			spec: estimatorSpec{
				Name: "m", Type: artifactTreeEnsemble, Schema: []string{"a"}, Aggregation: aggregationMean,
				Trees: []treeSpec{{Nodes: []nodeSpec{
					{Feature: 0, Threshold: 1, Left: 0, Right: 0},
				}}},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rq := require.New(t)

			_, err := buildEstimator(tt.spec)
			rq.Error(err)
		})
	}
}
