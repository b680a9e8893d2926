package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/admariner/wrangles/pkg/profile"
)

func profileCmd() *cobra.Command {
	var (
		asJSON    bool
		topK      int
		chunkSize int
	)
	cmd := &cobra.Command{
		Use:   "profile FILE",
		Short: "Summarise the columns of a csv, tsv, jsonl or parquet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := profileFile(args[0], topK, chunkSize)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(c.ReportJSON())
			}
			_, err = fmt.Fprint(out, c.ReportText())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	cmd.Flags().IntVar(&topK, "top", 5, "most frequent values shown per column; 0 hides them")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 10_000, "rows read per chunk")
	return cmd
}

func profileFile(path string, topK, chunkSize int) (*profile.Collector, error) {
	src, closer, err := openSource(path, chunkSize, true)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	c := profile.NewCollector(topK)
	for {
		f, err := src.Next()
		if errors.Is(err, io.EOF) {
			return c, nil
		}
		if err != nil {
			return nil, err
		}
		c.ConsumeFrame(f)
	}
}
