package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"estymator/internal/config"
	"estymator/internal/domain"
	"estymator/internal/domain/service/valuation"
	"estymator/pkg/contextx"
	"estymator/pkg/errcodes"
	"estymator/pkg/logx"
)

// DefaultModelVersion версия, под которой работает сервис, когда
// ансамблевый бандл не загружен. Участвует в ключах кэша.
const DefaultModelVersion = "estymatorai-v2.1-0.79pct"

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

// bundleSpec сериализованный ансамблевый бандл: базовые модели и их веса,
// сохранённые вместе при обучении.
type bundleSpec struct {
	Version string                   `json:"version"`
	MAPE    float64                  `json:"mape"`
	Weights map[string]float64       `json:"weights"`
	Models  map[string]estimatorSpec `json:"models"`
}

// Registry загруженные артефакты моделей. Заполняется один раз в Load и
// дальше не меняется.
type Registry struct {
	ensemble  *valuation.EnsembleBundle
	primary   *valuation.SingleModel
	secondary *valuation.SingleModel
	version   string
}

// Load читает артефакты из каталога моделей. Отсутствующий или битый файл
// отключает соответствующую стадию fallback-цепочки, но не валит старт:
// сервис обязан подниматься даже совсем без моделей.
func Load(ctx context.Context, cfg config.Models) *Registry {
	r := &Registry{version: DefaultModelVersion}

	if bundle := loadBundle(ctx, filepath.Join(cfg.Dir, cfg.EnsembleFile)); bundle != nil {
		r.ensemble = bundle
		if bundle.Version != "" {
			r.version = bundle.Version
		}
	}

	if est := loadSingle(ctx, filepath.Join(cfg.Dir, cfg.RFFile)); est != nil {
		r.primary = valuation.NewRandomForestModel(est)
	}

	if est := loadSingle(ctx, filepath.Join(cfg.Dir, cfg.XGBFile)); est != nil {
		r.secondary = valuation.NewXGBoostModel(est)
	}

	logger(ctx).Info(
		"model registry loaded",
		slog.String("version", r.version),
		slog.Any("models", r.Loaded()),
	)

	return r
}

func (r *Registry) Ensemble() (*valuation.EnsembleBundle, bool) {
	return r.ensemble, r.ensemble != nil
}

func (r *Registry) Primary() (*valuation.SingleModel, bool) {
	return r.primary, r.primary != nil
}

func (r *Registry) Secondary() (*valuation.SingleModel, bool) {
	return r.secondary, r.secondary != nil
}

// Version активная версия моделей, пространство имён ключей кэша.
func (r *Registry) Version() string {
	return r.version
}

// Loaded статус загрузки по стадиям, отдаётся в /health.
func (r *Registry) Loaded() map[string]bool {
	return map[string]bool{
		"ensemble": r.ensemble != nil,
		"rf":       r.primary != nil,
		"xgb":      r.secondary != nil,
	}
}

func loadBundle(ctx context.Context, path string) *valuation.EnsembleBundle {
	var spec bundleSpec
	if !readArtifact(ctx, path, &spec) {
		return nil
	}

	bundle := &valuation.EnsembleBundle{
		Version: spec.Version,
		MAPE:    spec.MAPE,
		Models:  make(map[string]valuation.Estimator, len(spec.Models)),
		Weights: spec.Weights,
	}

	for name, estSpec := range spec.Models {
		est, err := buildEstimator(estSpec)
		if err != nil {
			logger(ctx).Warn(
				"skipping broken ensemble member",
				slog.String("model", name),
				slog.String("path", path),
				logx.Error(err),
			)
			continue
		}
		if weight, ok := spec.Weights[name]; !ok || weight < 0 {
			logger(ctx).Warn(
				"skipping ensemble member without a valid weight",
				slog.String("model", name),
				slog.String("path", path),
			)
			continue
		}
		bundle.Models[name] = est
	}

	if len(bundle.Models) == 0 {
		logger(ctx).Warn("ensemble bundle has no usable models", slog.String("path", path))
		return nil
	}

	return bundle
}

func loadSingle(ctx context.Context, path string) valuation.Estimator {
	var spec estimatorSpec
	if !readArtifact(ctx, path, &spec) {
		return nil
	}

	est, err := buildEstimator(spec)
	if err != nil {
		logger(ctx).Warn("skipping broken model artifact", slog.String("path", path), logx.Error(err))
		return nil
	}

	return est
}

// readArtifact читает и парсит JSON-артефакт. false означает, что стадия
// будет отключена; причина уже залогирована.
func readArtifact(ctx context.Context, path string, dst any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger(ctx).Warn("model artifact not found", slog.String("path", path))
		} else {
			logger(ctx).Warn("cannot read model artifact", slog.String("path", path), logx.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		err = domain.WrapError(err, errcodes.ModelLoadError, fmt.Sprintf("unmarshal %s", filepath.Base(path)))
		logger(ctx).Warn("cannot parse model artifact", slog.String("path", path), logx.Error(err))
		return false
	}

	return true
}
