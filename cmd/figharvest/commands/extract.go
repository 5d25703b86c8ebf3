package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/figharvest/figharvest"
	"github.com/figharvest/figharvest/cmd/figharvest/ui"
	"github.com/figharvest/figharvest/config"
	"github.com/figharvest/figharvest/output"
)

var (
	extractOutputDir      string
	extractMaxFigures     int
	extractNoLocalizer    bool
	extractJSON           bool
	extractKeepUnselected bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Extract the figures of a PDF document",
	Long: `Extract figures and tables from a PDF document into an output directory.

The pdffigures2 localizer is used when its jar is configured (PDFFIGURES2_JAR
or localizer.jar in the config file); otherwise the embedded images of the
document are scanned directly.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutputDir, "output", "o", "", "output directory (default <pdf name>_figures)")
	extractCmd.Flags().IntVarP(&extractMaxFigures, "max-figures", "k", 6, "number of figures to select")
	extractCmd.Flags().BoolVar(&extractNoLocalizer, "no-localizer", false, "skip the pdffigures2 localizer")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print the metadata as JSON instead of a summary")
	extractCmd.Flags().BoolVar(&extractKeepUnselected, "keep-unselected", true, "also write figures that were not selected")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	pdfPath := args[0]

	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cmd, cfg, pdfPath)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	ui.InitUI(noColor, verbose)
	logger := cfg.Log.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ext := figharvest.Open(pdfPath).WithConfig(cfg).WithLogger(logger)
	if extractNoLocalizer {
		ext = ext.DisableLocalizer()
	}

	var bar *ui.ProgressBar
	if !extractJSON {
		ui.Section("Figure extraction")
		ui.Info("PDF file: %s", pdfPath)
		ui.Info("Output directory: %s", cfg.OutputDir)
		ui.Newline()

		ext = ext.WithProgress(func(done, total int) {
			if bar == nil {
				bar = ui.NewProgressBar(int64(total), "Extracting")
			}
			bar.SetTotal(int64(total))
			bar.Set(int64(done))
		})
	}

	res, err := ext.Run(ctx)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("extract %s: %w", pdfPath, err)
	}

	if extractJSON {
		meta, err := output.ReadMetadata(res.MetadataPath)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	ui.Summary(res)
	return nil
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *config.Config, pdfPath string) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir = extractOutputDir
	}
	if cfg.OutputDir == "" {
		stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
		cfg.OutputDir = filepath.Join(filepath.Dir(pdfPath), stem+"_figures")
	}
	if flags.Changed("max-figures") {
		cfg.MaxFigures = extractMaxFigures
	}
	if flags.Changed("keep-unselected") {
		cfg.KeepUnselected = extractKeepUnselected
	}
	if extractNoLocalizer {
		cfg.Localizer.Enabled = false
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
}
