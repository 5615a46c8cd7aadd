package valuation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"estymator/internal/domain/entity"
)

type fakeEstimator struct {
	name   string
	schema []string
	pred   float64
	err    error
	delay  time.Duration
	panics bool
}

func (f *fakeEstimator) Name() string     { return f.name }
func (f *fakeEstimator) Schema() []string { return f.schema }

func (f *fakeEstimator) Predict(_ []float64) (float64, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics {
		panic("corrupted model state")
	}
	return f.pred, f.err
}

type fakeRegistry struct {
	ensemble  *EnsembleBundle
	primary   *SingleModel
	secondary *SingleModel
	version   string
}

func (r *fakeRegistry) Ensemble() (*EnsembleBundle, bool) { return r.ensemble, r.ensemble != nil }
func (r *fakeRegistry) Primary() (*SingleModel, bool)     { return r.primary, r.primary != nil }
func (r *fakeRegistry) Secondary() (*SingleModel, bool)   { return r.secondary, r.secondary != nil }
func (r *fakeRegistry) Version() string                   { return r.version }

func (r *fakeRegistry) Loaded() map[string]bool {
	return map[string]bool{
		"ensemble":  r.ensemble != nil,
		"primary":   r.primary != nil,
		"secondary": r.secondary != nil,
	}
}

var testSchema = []string{"area", "rooms", "floor"} //nolint:gochecknoglobals

func testBundle(models map[string]Estimator) *EnsembleBundle {
	return &EnsembleBundle{
		Version: "estymatorai-v2.1-0.79pct",
		MAPE:    0.0079,
		Models:  models,
		Weights: map[string]float64{"rf": 0.4, "lgb": 0.6},
	}
}

func testRequest() entity.ValuationRequest {
	return entity.ValuationRequest{
		City:      "Olsztyn",
		Area:      60,
		Rooms:     3,
		Floor:     2,
		YearBuilt: 2015,
	}
}

func TestServicePredictEnsemble(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	svc := NewService(&fakeRegistry{
		ensemble: testBundle(map[string]Estimator{
			"rf":  &fakeEstimator{name: "rf", schema: testSchema, pred: 500000},
			"lgb": &fakeEstimator{name: "lgb", schema: testSchema, pred: 520000},
		}),
	})

	got := svc.Predict(context.Background(), testRequest())

	rq.Equal(entity.MethodEnsemble, got.Method)
	rq.InDelta(512000.0, got.Price, 1e-9)
	rq.InDelta(508000.0, got.MinPrice, 1e-9)
	rq.InDelta(516000.0, got.MaxPrice, 1e-9)
	rq.Equal("PLN", got.Currency)
	rq.Equal("±0.8%", got.Confidence)
	rq.False(got.Timestamp.IsZero())
}

func TestServicePredictSingleSurvivor(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	svc := NewService(&fakeRegistry{
		ensemble: testBundle(map[string]Estimator{
			"rf":  &fakeEstimator{name: "rf", schema: testSchema, err: errors.New("boosting round mismatch")},
			"lgb": &fakeEstimator{name: "lgb", schema: testSchema, pred: 520000},
		}),
	})

	got := svc.Predict(context.Background(), testRequest())

	rq.Equal(entity.MethodEnsembleSingle, got.Method)
	rq.InDelta(520000.0, got.Price, 1e-9)
	rq.Equal("±5%", got.Confidence)
}

func TestServicePredictFallbackChain(t *testing.T) {
	t.Parallel()

	primary := &SingleModel{
		Est:    &fakeEstimator{name: "valuation_rf", schema: testSchema, pred: 490000},
		Method: entity.MethodRandomForest,
		Width:  widthRandomForest,
	}
	secondary := &SingleModel{
		Est:    &fakeEstimator{name: "valuation_xgb", schema: testSchema, pred: 505000},
		Method: entity.MethodXGBoost,
		Width:  widthXGBoost,
	}
	brokenPrimary := &SingleModel{
		Est:    &fakeEstimator{name: "valuation_rf", schema: testSchema, err: errors.New("artifact checksum mismatch")},
		Method: entity.MethodRandomForest,
		Width:  widthRandomForest,
	}

	tests := []struct {
		name       string
		registry   *fakeRegistry
		wantMethod string
		wantPrice  float64
	}{
		{
			name:       "no ensemble falls to primary",
			registry:   &fakeRegistry{primary: primary, secondary: secondary},
			wantMethod: entity.MethodRandomForest,
			wantPrice:  490000,
		},
		{
			name:       "broken primary falls to secondary",
			registry:   &fakeRegistry{primary: brokenPrimary, secondary: secondary},
			wantMethod: entity.MethodXGBoost,
			wantPrice:  505000,
		},
		{
			name:       "nothing loaded falls to heuristic",
			registry:   &fakeRegistry{},
			wantMethod: entity.MethodHeuristic,
			// 60 м² * 7500 + 15000 за третью комнату, затем *1.05 за год >2010.
			wantPrice: 488000,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rq := require.New(t)

			got := NewService(tt.registry).Predict(context.Background(), testRequest())

			rq.Equal(tt.wantMethod, got.Method)
			rq.InDelta(tt.wantPrice, got.Price, 1e-9)
		})
	}
}

func TestServicePredictRejectsUnusableValues(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	// NaN от ансамбля и отрицательная цена от primary не должны дойти до
	// клиента: цепочка обязана докатиться до эвристики.
	svc := NewService(&fakeRegistry{
		ensemble: testBundle(map[string]Estimator{
			"rf":  &fakeEstimator{name: "rf", schema: testSchema, pred: math.NaN()},
			"lgb": &fakeEstimator{name: "lgb", schema: testSchema, pred: math.NaN()},
		}),
		primary: &SingleModel{
			Est:    &fakeEstimator{name: "valuation_rf", schema: testSchema, pred: -100},
			Method: entity.MethodRandomForest,
			Width:  widthRandomForest,
		},
	})

	got := svc.Predict(context.Background(), testRequest())

	rq.Equal(entity.MethodHeuristic, got.Method)
	rq.Greater(got.Price, 0.0)
}

func TestServicePredictStageTimeout(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	svc := NewService(&fakeRegistry{
		ensemble: testBundle(map[string]Estimator{
			"rf":  &fakeEstimator{name: "rf", schema: testSchema, pred: 500000, delay: time.Second},
			"lgb": &fakeEstimator{name: "lgb", schema: testSchema, pred: 520000, delay: time.Second},
		}),
	}).WithStageTimeout(50 * time.Millisecond)

	start := time.Now()
	got := svc.Predict(context.Background(), testRequest())

	rq.Equal(entity.MethodHeuristic, got.Method)
	rq.Less(time.Since(start), time.Second)
}

func TestServicePredictStagePanic(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	svc := NewService(&fakeRegistry{
		ensemble: testBundle(map[string]Estimator{
			"rf":  &fakeEstimator{name: "rf", schema: testSchema, panics: true},
			"lgb": &fakeEstimator{name: "lgb", schema: testSchema, panics: true},
		}),
	})

	got := svc.Predict(context.Background(), testRequest())

	rq.Equal(entity.MethodHeuristic, got.Method)
}

func TestHeuristicPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  entity.ValuationRequest
		want float64
	}{
		{
			name: "olsztyn new building with room bonus",
			req:  entity.ValuationRequest{City: "Olsztyn", Area: 60, Rooms: 3, YearBuilt: 2015},
			want: 488000,
		},
		{
			name: "stawiguda lower base",
			req:  entity.ValuationRequest{City: "Stawiguda", Area: 50, Rooms: 2, YearBuilt: 2000},
			want: 325000,
		},
		{
			name: "old building discount",
			req:  entity.ValuationRequest{City: "Olsztyn", Area: 40, Rooms: 1, YearBuilt: 1960},
			want: 270000,
		},
		{
			name: "unknown city default base",
			req:  entity.ValuationRequest{City: "Gietrzwałd", Area: 50, Rooms: 2, YearBuilt: 2000},
			want: 350000,
		},
		{
			name: "year 2010 boundary gets no correction",
			req:  entity.ValuationRequest{City: "Dywity", Area: 50, Rooms: 2, YearBuilt: 2010},
			want: 325000,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rq := require.New(t)

			rq.InDelta(tt.want, heuristicPrice(tt.req), 1e-9)
		})
	}
}

func TestEmergency(t *testing.T) {
	t.Parallel()
	rq := require.New(t)

	got := Emergency()

	rq.Equal(entity.MethodEmergency, got.Method)
	rq.InDelta(500000.0, got.Price, 1e-9)
	rq.InDelta(450000.0, got.MinPrice, 1e-9)
	rq.InDelta(550000.0, got.MaxPrice, 1e-9)
	rq.Equal("±10%", got.Confidence)
}
