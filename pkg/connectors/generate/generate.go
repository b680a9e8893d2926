// Package generate is the `test` connector: synthetic tables built from
// literal values and placeholder generators.
package generate

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/segmentio/ksuid"

	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var words = []string{
	"anchor", "bracket", "cable", "drill", "engine", "flange", "gasket",
	"hammer", "insulator", "jack", "knob", "lever", "motor", "nozzle",
	"oring", "pulley", "rivet", "socket", "tape", "valve", "washer",
}

// generators produce one cell per call for a `<name>` placeholder.
var generators = map[string]func() any{
	"int":     func() any { return int64(rand.IntN(100)) },
	"number":  func() any { return math.Round(rand.Float64()*10000) / 100 },
	"boolean": func() any { return rand.IntN(2) == 1 },
	"char":    func() any { return string(rune('a' + rand.IntN(26))) },
	"word":    func() any { return words[rand.IntN(len(words))] },
	"code":    func() any { return gonanoid.MustGenerate(codeAlphabet, 8) },
	"uuid":    func() any { return uuid.NewString() },
	"ksuid":   func() any { return ksuid.New().String() },
}

type options struct {
	Rows   int            `mapstructure:"rows" validate:"gte=0"`
	Values map[string]any `mapstructure:"values"`
}

// Tree is the `test` connector.
func Tree() registry.Map {
	return registry.Map{"read": registry.Reader{Fn: Read}}
}

// Read builds `rows` rows from `values`. Columns keep recipe order when
// the recipe was parsed in order and are sorted otherwise.
func Read(ctx context.Context, p registry.Params) (*w.Frame, error) {
	opts := options{Rows: 1}
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	names, _ := registry.KeysOf(p["values"])
	f := w.NewFrame()
	for _, name := range names {
		col, err := column(opts.Values[name], opts.Rows)
		if err != nil {
			return nil, err
		}
		if err := f.SetColumn(name, col); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func column(v any, rows int) ([]any, error) {
	col := make([]any, rows)
	s, ok := v.(string)
	if ok && strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		gen, known := generators[strings.ToLower(s[1:len(s)-1])]
		if !known {
			return nil, w.Configf("unknown test value generator %s", s)
		}
		for i := range col {
			col[i] = gen()
		}
		return col, nil
	}
	for i := range col {
		col[i] = v
	}
	return col, nil
}
