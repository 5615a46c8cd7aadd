package registry

import (
	"fmt"
	"math"

	"estymator/internal/domain"
	"estymator/pkg/errcodes"
)

// Типы артефактов в JSON-файлах моделей.
const (
	artifactLinear       = "linear"
	artifactTreeEnsemble = "tree_ensemble"
)

// Агрегация деревьев: mean — случайный лес, sum — бустинг (вклады деревьев
// складываются с базовым скором).
const (
	aggregationMean = "mean"
	aggregationSum  = "sum"
)

// estimatorSpec сериализованное описание одной модели. Формат общий для
// standalone-артефактов и участников ансамблевого бандла.
type estimatorSpec struct {
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Schema      []string   `json:"schema"`
	Bias        float64    `json:"bias,omitempty"`
	Weights     []float64  `json:"weights,omitempty"`
	Trees       []treeSpec `json:"trees,omitempty"`
	Aggregation string     `json:"aggregation,omitempty"`
	BaseScore   float64    `json:"base_score,omitempty"`
}

// treeSpec дерево решений в плоском виде: узлы в массиве, ссылки по
// индексам. Лист кодируется Left == -1.
type treeSpec struct {
	Nodes []nodeSpec `json:"nodes"`
}

type nodeSpec struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// buildEstimator валидирует спеку и собирает из неё эстиматор.
func buildEstimator(spec estimatorSpec) (*estimator, error) {
	if spec.Name == "" {
		return nil, domain.NewError(errcodes.ModelLoadError, "estimator has no name")
	}
	if len(spec.Schema) == 0 {
		return nil, domain.NewError(errcodes.ModelLoadError, fmt.Sprintf("%s: empty feature schema", spec.Name))
	}

	est := &estimator{spec: spec}

	switch spec.Type {
	case artifactLinear:
		if len(spec.Weights) != len(spec.Schema) {
			return nil, domain.NewError(
				errcodes.ModelLoadError,
				fmt.Sprintf("%s: %d weights for %d schema columns", spec.Name, len(spec.Weights), len(spec.Schema)),
			)
		}
	case artifactTreeEnsemble:
		if len(spec.Trees) == 0 {
			return nil, domain.NewError(errcodes.ModelLoadError, fmt.Sprintf("%s: no trees", spec.Name))
		}
		if spec.Aggregation != aggregationMean && spec.Aggregation != aggregationSum {
			return nil, domain.NewError(
				errcodes.ModelLoadError,
				fmt.Sprintf("%s: unknown aggregation %q", spec.Name, spec.Aggregation),
			)
		}
		for i, tree := range spec.Trees {
			if err := validateTree(tree, len(spec.Schema)); err != nil {
				return nil, domain.WrapError(err, errcodes.ModelLoadError, fmt.Sprintf("%s: tree %d", spec.Name, i))
			}
		}
	default:
		return nil, domain.NewError(errcodes.ModelLoadError, fmt.Sprintf("%s: unknown artifact type %q", spec.Name, spec.Type))
	}

	return est, nil
}

func validateTree(tree treeSpec, schemaLen int) error {
	if len(tree.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, node := range tree.Nodes {
		if node.Left == -1 {
			continue
		}
		if node.Feature < 0 || node.Feature >= schemaLen {
			return fmt.Errorf("node %d: feature index %d out of schema", i, node.Feature)
		}
		if node.Left < 0 || node.Left >= len(tree.Nodes) || node.Right < 0 || node.Right >= len(tree.Nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
		if node.Left <= i || node.Right <= i {
			return fmt.Errorf("node %d: child must come after parent", i)
		}
	}
	return nil
}

// estimator реализация valuation.Estimator поверх десериализованной спеки.
// После загрузки структура не меняется, Predict безопасен для конкурентных
// запросов.
type estimator struct {
	spec estimatorSpec
}

func (e *estimator) Name() string { return e.spec.Name }

func (e *estimator) Schema() []string { return e.spec.Schema }

func (e *estimator) Predict(values []float64) (float64, error) {
	if len(values) != len(e.spec.Schema) {
		return 0, domain.NewError(
			errcodes.ModelInferenceError,
			fmt.Sprintf("%s: got %d values for %d schema columns", e.spec.Name, len(values), len(e.spec.Schema)),
		)
	}

	switch e.spec.Type {
	case artifactLinear:
		return e.predictLinear(values), nil
	case artifactTreeEnsemble:
		return e.predictTrees(values), nil
	default:
		return 0, domain.NewError(errcodes.ModelInferenceError, fmt.Sprintf("%s: unknown artifact type", e.spec.Name))
	}
}

func (e *estimator) predictLinear(values []float64) float64 {
	score := e.spec.Bias
	for i, v := range values {
		score += e.spec.Weights[i] * v
	}
	return score
}

func (e *estimator) predictTrees(values []float64) float64 {
	score := e.spec.BaseScore
	for _, tree := range e.spec.Trees {
		score += evalTree(tree, values)
	}

	if e.spec.Aggregation == aggregationMean {
		score = (score - e.spec.BaseScore) / float64(len(e.spec.Trees))
		score += e.spec.BaseScore
	}

	return score
}

func evalTree(tree treeSpec, values []float64) float64 {
	i := 0
	// Валидация при загрузке гарантирует, что индексы детей строго растут,
	// так что обход всегда завершается.
	for {
		node := tree.Nodes[i]
		if node.Left == -1 {
			return node.Value
		}
		if values[node.Feature] <= node.Threshold || math.IsNaN(values[node.Feature]) {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}
