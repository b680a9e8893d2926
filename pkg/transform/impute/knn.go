package impute

import (
	"context"
	"fmt"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/knn"

	"github.com/admariner/wrangles/adapters/golearn"
	"github.com/admariner/wrangles/pkg/project"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// KNN fills gaps with the majority value among the nearest rows, measured
// over the numeric Features columns. Rows with a non-numeric feature
// neither vote nor get filled.
type KNN struct {
	project.Columns `mapstructure:",squash"`
	Features        []string `mapstructure:"features" validate:"required,min=1"`
	Neighbours      int      `mapstructure:"neighbours" validate:"gte=1"`
	Distance        string   `mapstructure:"distance" validate:"oneof=euclidean manhattan cosine"`
}

func (t *KNN) SetDefaults() { t.Neighbours, t.Distance = 3, "euclidean" }

func (t *KNN) Name() string { return "impute.knn" }

func (t *KNN) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	in, out, err := t.Pairs(f)
	if err != nil {
		return nil, err
	}
	for _, n := range t.Features {
		if !f.Has(n) {
			return nil, w.Missing(n)
		}
	}
	for i := range in {
		col, err := t.predict(ctx, f, in[i])
		if err != nil {
			return nil, fmt.Errorf("impute.knn %s: %w", in[i], err)
		}
		if err := f.SetColumn(out[i], col); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (t *KNN) predict(ctx context.Context, f *w.Frame, target string) ([]any, error) {
	src, _ := f.Column(target)
	col := append([]any(nil), src...)

	var train, test []int
	labels := map[string]any{}
	for r := 0; r < f.Rows(); r++ {
		if !t.numericFeatures(f, r) {
			continue
		}
		v := f.Cell(r, target)
		if w.IsEmpty(v) {
			test = append(test, r)
			continue
		}
		train = append(train, r)
		if _, ok := labels[w.String(v)]; !ok {
			labels[w.String(v)] = v
		}
	}
	if len(train) == 0 || len(test) == 0 {
		return col, nil
	}

	attrs := golearn.Attributes(t.Features, target)
	trainInst, err := golearn.ToDenseInstances(f, attrs, train, true)
	if err != nil {
		return nil, err
	}
	testInst, err := golearn.ToDenseInstances(f, attrs, test, false)
	if err != nil {
		return nil, err
	}

	k := t.Neighbours
	if k > len(train) {
		k = len(train)
	}
	cls := knn.NewKnnClassifier(t.Distance, "linear", k)
	cls.AllowOptimisations = false
	if err := cls.Fit(trainInst); err != nil {
		return nil, err
	}
	pred, err := cls.Predict(testInst)
	if err != nil {
		return nil, err
	}
	for i, r := range test {
		col[r] = labels[base.GetClass(pred, i)]
	}
	logger.Debug().Str("column", target).Int("filled", len(test)).Int("neighbours", k).Msg("knn imputation")
	return col, nil
}

func (t *KNN) numericFeatures(f *w.Frame, r int) bool {
	for _, n := range t.Features {
		v := f.Cell(r, n)
		if w.IsEmpty(v) {
			return false
		}
		if _, ok := w.Float(v); !ok {
			return false
		}
	}
	return true
}
