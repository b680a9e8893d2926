package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/admariner/wrangles/pkg/gologger"
	"github.com/admariner/wrangles/pkg/recipe"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

var logger = gologger.NewLogger()

const benchRecipe = `
wrangles:
  - impute.mean:
      input: f0
  - impute.median:
      input: i0
  - format.trim:
      input: s0
  - convert.case:
      input: s0
      case: lower
`

type genSource struct {
	names  []string
	kinds  []w.Kind
	remain int
	chunk  int
	missp  float64
	rnd    *rand.Rand
}

func (g *genSource) Next() (*w.Frame, error) {
	if g.remain <= 0 {
		return nil, io.EOF
	}
	n := min(g.chunk, g.remain)
	g.remain -= n
	f := w.NewFrame()
	for c, name := range g.names {
		col := make([]any, n)
		for i := range col {
			if g.rnd.Float64() < g.missp {
				continue
			}
			switch g.kinds[c] {
			case w.KindFloat:
				col[i] = g.rnd.Float64() * 100
			case w.KindInt:
				col[i] = int64(g.rnd.Intn(100))
			case w.KindString:
				col[i] = "  Alpha "
			}
		}
		if err := f.SetColumn(name, col); err != nil {
			return nil, err
		}
	}
	return f, nil
}

type blackholeSink struct{ rows int }

func (b *blackholeSink) Write(f *w.Frame) error { b.rows += f.Rows(); return nil }
func (b *blackholeSink) Close() error           { return nil }

func main() {
	var (
		rows    int
		chunk   int
		fcols   int
		icols   int
		scols   int
		missp   float64
		jsonOut bool
		seed    int64
	)
	cmd := &cobra.Command{
		Use:          "benchwrangles",
		Short:        "Push synthetic chunked data through a wrangle pipeline",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fcols < 1 || icols < 1 || scols < 1 {
				return fmt.Errorf("need at least one float, int and string column")
			}
			r, err := recipe.Parse([]byte(benchRecipe), recipe.YAML)
			if err != nil {
				return err
			}
			p, err := recipe.Pipeline(r)
			if err != nil {
				return err
			}

			src := &genSource{remain: rows, chunk: chunk, missp: missp, rnd: rand.New(rand.NewSource(seed))}
			for i := 0; i < fcols; i++ {
				src.names, src.kinds = append(src.names, fmt.Sprintf("f%d", i)), append(src.kinds, w.KindFloat)
			}
			for i := 0; i < icols; i++ {
				src.names, src.kinds = append(src.names, fmt.Sprintf("i%d", i)), append(src.kinds, w.KindInt)
			}
			for i := 0; i < scols; i++ {
				src.names, src.kinds = append(src.names, fmt.Sprintf("s%d", i)), append(src.kinds, w.KindString)
			}
			sink := &blackholeSink{}

			// Warm up
			runtime.GC()
			time.Sleep(100 * time.Millisecond)

			var msBefore, msAfter runtime.MemStats
			runtime.ReadMemStats(&msBefore)
			start := time.Now()
			if err := w.RunStream(cmd.Context(), p, src, sink); err != nil {
				return err
			}
			elapsed := time.Since(start)
			runtime.ReadMemStats(&msAfter)

			rowsPerSec := float64(sink.rows) / elapsed.Seconds()
			if jsonOut {
				summary := map[string]any{
					"rows":                  sink.rows,
					"elapsed_ms":            elapsed.Milliseconds(),
					"rows_per_sec":          rowsPerSec,
					"mem_alloc_bytes":       msAfter.Alloc,
					"mem_total_alloc_bytes": msAfter.TotalAlloc - msBefore.TotalAlloc,
					"gc_num":                msAfter.NumGC - msBefore.NumGC,
					"cols":                  map[string]int{"float": fcols, "int": icols, "string": scols},
					"chunk":                 chunk,
					"missing_prob":          missp,
				}
				b, _ := json.MarshalIndent(summary, "", "  ")
				fmt.Println(string(b))
				return nil
			}
			fmt.Printf("Rows: %d\n", sink.rows)
			fmt.Printf("Elapsed: %s\n", elapsed)
			fmt.Printf("Throughput: %.0f rows/s\n", rowsPerSec)
			fmt.Printf("Current Alloc: %d MB\n", msAfter.Alloc/1024/1024)
			fmt.Printf("Total Alloc (delta): %d MB\n", (msAfter.TotalAlloc-msBefore.TotalAlloc)/1024/1024)
			fmt.Printf("GC cycles (delta): %d\n", msAfter.NumGC-msBefore.NumGC)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&rows, "rows", 1_000_000, "total rows to generate")
	fl.IntVar(&chunk, "chunk", 100_000, "rows per chunk")
	fl.IntVar(&fcols, "float-cols", 4, "number of float columns")
	fl.IntVar(&icols, "int-cols", 2, "number of int columns")
	fl.IntVar(&scols, "string-cols", 2, "number of string columns")
	fl.Float64Var(&missp, "missing", 0.05, "probability of missing values in each cell")
	fl.BoolVar(&jsonOut, "json", false, "emit JSON summary")
	fl.Int64Var(&seed, "seed", 42, "random seed")

	if err := cmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("benchmark failed")
		os.Exit(1)
	}
}
