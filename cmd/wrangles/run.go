package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/admariner/wrangles/pkg/io/csvio"
	iox "github.com/admariner/wrangles/pkg/io/ioutils"
	"github.com/admariner/wrangles/pkg/io/jsonlio"
	"github.com/admariner/wrangles/pkg/io/parquetio"
	"github.com/admariner/wrangles/pkg/recipe"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

func runCmd() *cobra.Command {
	var (
		vars      map[string]string
		chunkSize int
		input     string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "run RECIPE",
		Short: "Run a recipe once",
		Long: "Run a recipe once. With --chunk-size the recipe's wrangles are applied to\n" +
			"--input chunk by chunk and appended to --output; its read and write sections are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := recipe.Load(args[0])
			if err != nil {
				return err
			}
			opts := variables(vars)
			if chunkSize > 0 {
				if input == "" || output == "" {
					return errors.New("--chunk-size needs --input and --output")
				}
				return streamRecipe(cmd.Context(), r, input, output, chunkSize, opts)
			}
			return runRecipe(cmd.Context(), r, opts)
		},
	}
	cmd.Flags().StringToStringVar(&vars, "var", nil, "recipe variable as NAME=VALUE (repeatable)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "stream rows in chunks of this size; 0 disables streaming")
	cmd.Flags().StringVar(&input, "input", "", "file streamed through the wrangles (csv, tsv, jsonl or parquet)")
	cmd.Flags().StringVar(&output, "output", "", "file the streamed chunks are written to")
	return cmd
}

func runRecipe(ctx context.Context, r *recipe.Recipe, opts []recipe.Option) error {
	f, err := recipe.Run(ctx, r, opts...)
	if err != nil {
		return err
	}
	if f != nil {
		logger.Info().Int("rows", f.Rows()).Int("columns", f.Cols()).Msg("recipe finished")
	}
	return nil
}

func streamRecipe(ctx context.Context, r *recipe.Recipe, input, output string, chunkSize int, opts []recipe.Option) error {
	p, err := recipe.Pipeline(r, opts...)
	if err != nil {
		return err
	}
	src, closer, err := openSource(input, chunkSize, false)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", input, err)
	}
	defer closer.Close()
	sink, err := openSink(output)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", output, err)
	}
	return w.RunStream(ctx, p, src, sink)
}

// openSource opens path as a chunked reader, choosing the codec by
// extension. inferTypes only affects delimited text.
func openSource(path string, chunkSize int, inferTypes bool) (w.ChunkSource, io.Closer, error) {
	kind, err := iox.DetectFormat(path)
	if err != nil {
		return nil, nil, err
	}
	switch kind {
	case iox.FormatCSV, iox.FormatTSV:
		opt := csvio.ReaderOptions{HasHeader: true, SampleRows: 100, InferTypes: inferTypes}
		if kind == iox.FormatTSV {
			opt.Delimiter = '\t'
		}
		sr, c, err := csvio.NewStreamReader(path, opt, chunkSize)
		if err != nil {
			return nil, nil, err
		}
		return sr, c, nil
	case iox.FormatJSONL:
		sr, c, err := jsonlio.NewStreamReader(path, chunkSize)
		if err != nil {
			return nil, nil, err
		}
		return sr, c, nil
	case iox.FormatParquet:
		sr, err := parquetio.NewStreamReader(path, chunkSize)
		if err != nil {
			return nil, nil, err
		}
		return sr, sr, nil
	}
	return nil, nil, fmt.Errorf("%s files cannot be streamed", kind)
}

func openSink(path string) (w.ChunkSink, error) {
	kind, err := iox.DetectFormat(path)
	if err != nil {
		return nil, err
	}
	switch kind {
	case iox.FormatCSV, iox.FormatTSV:
		opt := csvio.WriterOptions{}
		if kind == iox.FormatTSV {
			opt.Delimiter = '\t'
		}
		return csvio.NewStreamWriter(path, opt)
	case iox.FormatJSONL:
		return jsonlio.NewStreamWriter(path)
	case iox.FormatParquet:
		return parquetio.NewStreamWriter(path)
	}
	return nil, fmt.Errorf("%s files cannot be streamed", kind)
}
