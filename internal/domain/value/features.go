package value

// FeatureVector упорядоченное отображение имени признака в число.
// Порядок вставки сохраняется: для tree-ensemble моделей порядок колонок
// обязан побайтово совпадать с порядком на этапе обучения.
type FeatureVector struct {
	names  []string
	values map[string]float64
}

func NewFeatureVector() *FeatureVector {
	return &FeatureVector{
		names:  make([]string, 0, 32),
		values: make(map[string]float64, 32),
	}
}

// Set добавляет признак. Повторный Set по тому же имени перезаписывает
// значение, не меняя позицию.
func (v *FeatureVector) Set(name string, val float64) {
	if _, ok := v.values[name]; !ok {
		v.names = append(v.names, name)
	}
	v.values[name] = val
}

func (v *FeatureVector) Get(name string) (float64, bool) {
	val, ok := v.values[name]
	return val, ok
}

func (v *FeatureVector) Len() int {
	return len(v.names)
}

// Names возвращает имена в порядке вставки.
func (v *FeatureVector) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Values возвращает значения в порядке вставки.
func (v *FeatureVector) Values() []float64 {
	out := make([]float64, len(v.names))
	for i, name := range v.names {
		out[i] = v.values[name]
	}
	return out
}

// Reconcile выравнивает вектор под схему конкретной модели: отсутствующие
// в векторе колонки получают 0, лишние отбрасываются, порядок строго равен
// порядку схемы. По построению не может завершиться ошибкой.
func (v *FeatureVector) Reconcile(schema []string) *FeatureVector {
	out := NewFeatureVector()
	for _, name := range schema {
		val, ok := v.values[name]
		if !ok {
			val = 0
		}
		out.Set(name, val)
	}
	return out
}
