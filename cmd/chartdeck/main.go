package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/user/chartdeck-go/internal/config"
	"github.com/user/chartdeck-go/internal/generator"
	"github.com/user/chartdeck-go/internal/models"
	"github.com/user/chartdeck-go/internal/report"
	"github.com/user/chartdeck-go/internal/selector"
)

var (
	// Global flags.
	configPath string
	cacheDir   string
	noCache    bool
	verbose    bool

	cfg *config.Config

	// Used for flags.
	outputFilePath string
	reportFormat   string
	clearCache     bool
	target         string
	maxCharts      int
	jsonOutput     bool
	title          string
	subtitle       string
	templatePath   string
	single         bool
	category       string
	value          string
	series         []string
	chartTitle     string
	stacked        bool
	outputDir      string
	workers        int

	rootCmd = &cobra.Command{
		Use:   "chartdeck",
		Short: "chartdeck turns tabular data into chart presentations.",
		Long: `A tool that reads CSV, Excel and JSON data, works out which charts
suit it, and builds PowerPoint decks with a title slide, a data summary
and one slide per chart.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			loaded, err := config.Load(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("cache-dir") {
				loaded.CacheDir = cacheDir
			}
			if noCache {
				loaded.CacheDir = ""
			}
			cfg = loaded
			return nil
		},
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze [DATA_FILE]",
		Short: "Writes an insights report for a data file.",
		Long: `Loads DATA_FILE, describes its columns, statistics, data quality and the
chart best suited to it, and writes the result as json, yaml, xlsx or html.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := generator.New(cfg)
			if err := g.LoadData(cmd.Context(), args[0]); err != nil {
				return err
			}
			if clearCache {
				if err := g.ClearCache(); err != nil {
					return err
				}
			}

			if outputFilePath == "" {
				outputFilePath = fmt.Sprintf("%s-insights.%s", g.Dataset().Name, strings.ToLower(reportFormat))
			}
			absOutputFilePath, err := filepath.Abs(outputFilePath)
			if err != nil {
				return fmt.Errorf("invalid output file path '%s': %w", outputFilePath, err)
			}
			if err := g.WriteReport(reportFormat, absOutputFilePath); err != nil {
				return err
			}
			fmt.Printf("%s report generated successfully: %s\n", strings.ToUpper(reportFormat), absOutputFilePath)
			return nil
		},
	}

	recommendCmd = &cobra.Command{
		Use:   "recommend [DATA_FILE]",
		Short: "Prints the charts suggested for a data file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := generator.New(cfg)
			if err := g.LoadData(cmd.Context(), args[0]); err != nil {
				return err
			}
			recs, err := g.Recommend(target, maxCharts)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}
			for i, rec := range recs {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s  %.0f%%\n   %s\n", i+1, rec, 100*rec.Confidence, rec.Reason)
			}
			return nil
		},
	}

	buildCmd = &cobra.Command{
		Use:   "build [DATA_FILE]",
		Short: "Builds a presentation from the recommended charts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if templatePath != "" {
				cfg.Template = templatePath
			}
			g := generator.New(cfg)
			if err := g.LoadData(cmd.Context(), args[0]); err != nil {
				return err
			}
			out, err := g.CreatePresentation(cmd.Context(), generator.PresentationRequest{
				Output:   outputFilePath,
				Title:    title,
				Subtitle: subtitle,
				Target:   target,
				Single:   single,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Presentation generated successfully: %s\n", out)
			return nil
		},
	}

	chartCmd = &cobra.Command{
		Use:   "chart [DATA_FILE] [bar|line|pie|scatter|area|histogram]",
		Short: "Builds a presentation around one chosen chart.",
		Long: `Builds a presentation holding a single chart of the given type over
DATA_FILE. --value names the plotted numeric column, --category the x axis
or grouping column, and --series any extra numeric columns.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := selector.ParseKind(args[1])
			if err != nil {
				return err
			}
			if templatePath != "" {
				cfg.Template = templatePath
			}
			g := generator.New(cfg)
			if err := g.LoadData(cmd.Context(), args[0]); err != nil {
				return err
			}
			cc := generator.ChartConfig{
				Kind:    kind,
				Roles:   models.RoleAssignment{Category: category, Value: value, Series: series},
				Title:   chartTitle,
				Stacked: stacked,
			}
			out, err := g.CreateCustomChart(cmd.Context(), cc, outputFilePath)
			if err != nil {
				return err
			}
			fmt.Printf("Presentation generated successfully: %s\n", out)
			return nil
		},
	}

	batchCmd = &cobra.Command{
		Use:   "batch [DATA_FILE...]",
		Short: "Builds one presentation per data file.",
		Long: `Builds <name>_analysis.pptx in the output directory for every DATA_FILE.
Files that cannot be processed are reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			generated, err := generator.BatchProcess(cmd.Context(), cfg, args, outputDir)
			if err != nil {
				return err
			}
			for _, out := range generated {
				fmt.Printf("Generated: %s\n", out)
			}
			if len(generated) < len(args) {
				return fmt.Errorf("%d of %d files failed", len(args)-len(generated), len(args))
			}
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Directory for cached insights (default: user cache dir)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Do not read or write cached insights")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	analyzeCmd.Flags().StringVarP(&outputFilePath, "output-file-path", "o", "", "Output file path for the report")
	analyzeCmd.Flags().StringVarP(&reportFormat, "format", "f", "json", "Report format: "+strings.Join(report.Formats, ", "))
	analyzeCmd.Flags().BoolVar(&clearCache, "clear-cache", false, "Clears cached insights before analysing")

	recommendCmd.Flags().StringVarP(&target, "target", "t", "", "Numeric column to focus on")
	recommendCmd.Flags().IntVarP(&maxCharts, "max-charts", "n", 0, "Maximum number of charts (default from config)")
	recommendCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print recommendations as JSON")

	buildCmd.Flags().StringVarP(&outputFilePath, "output-file-path", "o", "", "Output .pptx path (default: title with underscores)")
	buildCmd.Flags().StringVar(&title, "title", generator.DefaultTitle, "Presentation title")
	buildCmd.Flags().StringVar(&subtitle, "subtitle", "", "Title slide subtitle (default: generation date)")
	buildCmd.Flags().StringVar(&templatePath, "template", "", "PPTX template to append slides to")
	buildCmd.Flags().StringVarP(&target, "target", "t", "", "Numeric column to focus on")
	buildCmd.Flags().BoolVar(&single, "single", false, "Only include the primary chart")

	chartCmd.Flags().StringVarP(&outputFilePath, "output-file-path", "o", "", "Output .pptx path (default: <type>_chart.pptx)")
	chartCmd.Flags().StringVarP(&category, "category", "c", "", "Category or x axis column")
	chartCmd.Flags().StringVar(&value, "value", "", "Value column")
	chartCmd.Flags().StringSliceVarP(&series, "series", "s", nil, "Additional value columns")
	chartCmd.Flags().BoolVar(&stacked, "stacked", false, "Stack the series of bar and area charts")
	chartCmd.Flags().StringVar(&chartTitle, "title", "", "Chart slide heading")
	chartCmd.Flags().StringVar(&templatePath, "template", "", "PPTX template to append slides to")
	_ = chartCmd.MarkFlagRequired("value")

	batchCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "output", "Directory for generated presentations")
	batchCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Files processed at once (default from config)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(batchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
