package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/classify"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/config"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/logging"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/model"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/preprocess"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/result"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	modelPath    string
	metadataPath string
	jsonOutput   bool
)

var rootCmd = &cobra.Command{
	Use:   "classify <image>...",
	Short: "Classify brain MRI scans from the command line",
	Long: `Runs the brain MRI classifier on one or more JPEG or PNG files and prints
the predicted class and confidence for each.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
			return err
		}
		if modelPath != "" {
			cfg.ModelPath = modelPath
		}
		if metadataPath != "" {
			cfg.MetadataPath = metadataPath
		}
		root, err := config.ProjectRoot()
		if err != nil {
			return err
		}
		cfg.ResolvePaths(root)

		server, err := model.Load(cfg.ModelPath, cfg.MetadataPath,
			model.WithSharedLibraryPath(cfg.OnnxRuntimeLib),
			model.WithIntraOpThreads(cfg.IntraOpThreads),
		)
		if err != nil {
			return fmt.Errorf("failed to load model: %w", err)
		}
		defer server.Close()

		svc, err := classify.New(server)
		if err != nil {
			return err
		}

		rows := classifyFiles(cmd.Context(), svc, args)
		out := cmd.OutOrStdout()
		if jsonOutput {
			err = writeJSON(out, rows)
		} else {
			writeTable(out, rows)
			fmt.Fprintln(out, color.New(color.Faint).Sprint(result.Disclaimer))
		}
		if err != nil {
			return err
		}
		if n := failures(rows); n > 0 {
			return fmt.Errorf("%d of %d files could not be classified", n, len(rows))
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file (default $BTD_CONFIG)")
	rootCmd.Flags().StringVar(&modelPath, "model", "", "ONNX model path (overrides config)")
	rootCmd.Flags().StringVar(&metadataPath, "metadata", "", "Model metadata path (overrides config)")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type fileResult struct {
	File   string         `json:"file"`
	Report *result.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func classifyFiles(ctx context.Context, svc *classify.Service, paths []string) []fileResult {
	out := make([]fileResult, 0, len(paths))
	for _, p := range paths {
		r := fileResult{File: p}
		report, err := classifyFile(ctx, svc, p)
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Report = report
		}
		out = append(out, r)
	}
	return out
}

func classifyFile(ctx context.Context, svc *classify.Service, path string) (*result.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := preprocess.Decode(f, path)
	if err != nil {
		return nil, err
	}
	return svc.ClassifyImage(ctx, img)
}

func writeJSON(w io.Writer, rows []fileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeTable(w io.Writer, rows []fileResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Class", "Confidence", "Band", "Result"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range rows {
		name := filepath.Base(r.File)
		if r.Report == nil {
			table.Append([]string{name, "-", "-", "-", color.RedString("ERROR: %s", r.Error)})
			continue
		}
		table.Append([]string{
			name,
			string(r.Report.Label),
			r.Report.ConfidencePercent,
			bandString(r.Report.Band),
			r.Report.Description.Headline,
		})
	}
	table.Render()
}

func bandString(b result.Band) string {
	switch b {
	case result.BandHigh:
		return color.GreenString(string(b))
	case result.BandMedium:
		return color.YellowString(string(b))
	default:
		return color.RedString(string(b))
	}
}

func failures(rows []fileResult) int {
	n := 0
	for _, r := range rows {
		if r.Report == nil {
			n++
		}
	}
	return n
}
