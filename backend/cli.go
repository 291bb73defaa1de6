package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SergeyShakirov/TaskGo/backend/config"
	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/service"
)

func newGenerateCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		brief  model.TaskBrief
		budget float64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Expand a brief into structured task content",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("budget") {
				brief.Budget = &budget
			}

			gen := service.NewContentGenerator(&cfg.AI, nil, nil).Generate(cmd.Context(), brief)
			if !gen.Success {
				return fmt.Errorf("generation failed: %s", gen.Error)
			}
			return writeJSON(cmd, gen)
		},
	}

	cmd.Flags().StringVar(&brief.BriefDescription, "brief", "", "free-text project brief (required)")
	cmd.Flags().StringVar(&brief.Category, "category", "", "category label")
	cmd.Flags().Float64Var(&budget, "budget", 0, "budget in the configured currency")
	cmd.Flags().StringVar(&brief.Deadline, "deadline", "", "deadline date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("brief")
	return cmd
}

func newExportCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		input  string
		format string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render an export request file to a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("reading %s: %w", input, err)
			}
			var req model.ExportRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parsing %s: %w", input, err)
			}

			var store service.ArtifactStore
			if outDir != "" {
				store = service.NewLocalArtifactStore(outDir)
			} else if store, err = openArtifactStore(cmd.Context(), cfg); err != nil {
				return err
			}

			artifact, err := newExportService(cfg, store, nil).Export(cmd.Context(), model.ExportFormat(format), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd, artifact)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file with {taskRequest, aiGeneration, ...}")
	cmd.Flags().StringVarP(&format, "format", "f", string(model.FormatPDF), "pdf or word")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (overrides export.output_dir)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
