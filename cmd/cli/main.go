package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Boliti/Website/internal/config"
	"github.com/Boliti/Website/pkg/logger"
	"github.com/Boliti/Website/pkg/models"
	"github.com/Boliti/Website/pkg/spectra"
	"github.com/Boliti/Website/pkg/spectra/analysis"
	"github.com/Boliti/Website/pkg/spectra/export"
	"github.com/Boliti/Website/pkg/spectra/pipeline"
	"github.com/Boliti/Website/pkg/spectra/storage"
	"github.com/Boliti/Website/pkg/utils"
)

const maxInputBytes = 64 << 20

// Global flags
var (
	dbPath string
)

func init() {
	flag.StringVar(&dbPath, "db", getEnvOrDefault("SPECTRA_DB_PATH", storage.DefaultDBFile), "Path to the SQLite database file")
	flag.Usage = printUsage
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createService creates a spectra service with configured options
func createService(opts ...spectra.Option) (spectra.Service, error) {
	return spectra.NewService(append([]spectra.Option{
		spectra.WithDBPath(dbPath),
		spectra.WithLogger(logger.GetLogger()),
	}, opts...)...)
}

func main() {
	// Keep stdout clean for JSON output
	logger.SetOutput(os.Stderr)
	log := logger.GetLogger()
	defer log.Sync()

	flag.Parse()
	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]
	log.Debugf("Executing command: %s", command)

	var err error
	switch command {
	case "process":
		err = handleProcess(args)
	case "presets":
		err = handlePresets(args)
	case "runs":
		err = handleRuns(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		log.Errorf("%s failed: %v", command, err)
		os.Exit(1)
	}
}

// splitArgs separates leading file paths from the flags that follow them.
func splitArgs(args []string) (paths, flagArgs []string) {
	for i, arg := range args {
		if strings.HasPrefix(arg, "-") {
			return paths, args[i:]
		}
		paths = append(paths, arg)
	}
	return paths, nil
}

// processOptions holds the parsed flags of the process command.
type processOptions struct {
	cfg     pipeline.TransformConfig
	preset  string
	out     string
	analyze bool
	timeout time.Duration
}

func parseProcessFlags(args []string) (processOptions, []string, error) {
	paths, flagArgs := splitArgs(args)

	opts := processOptions{cfg: pipeline.DefaultTransformConfig()}
	cfg := &opts.cfg

	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.Float64Var(&cfg.MinFreq, "min", cfg.MinFreq, "Lower frequency bound (inclusive)")
	fs.Float64Var(&cfg.MaxFreq, "max", cfg.MaxFreq, "Upper frequency bound (inclusive)")
	fs.BoolVar(&cfg.RemoveBaseline, "baseline", false, "Subtract the asymmetric least squares baseline")
	fs.Float64Var(&cfg.Lam, "lam", cfg.Lam, "Baseline smoothness")
	fs.Float64Var(&cfg.P, "p", cfg.P, "Baseline asymmetry, within (0, 1)")
	fs.BoolVar(&cfg.ApplySmoothing, "smooth", false, "Apply Savitzky-Golay smoothing")
	fs.IntVar(&cfg.WindowLength, "window", cfg.WindowLength, "Smoothing window length")
	fs.IntVar(&cfg.PolyOrder, "polyorder", cfg.PolyOrder, "Smoothing polynomial order")
	fs.BoolVar(&cfg.Normalize, "normalize", false, "Apply standard normal variate normalization")
	fs.BoolVar(&cfg.FindPeaks, "peaks", false, "Detect peaks")
	fs.Float64Var(&cfg.Width, "width", cfg.Width, "Minimum peak width in samples")
	fs.Float64Var(&cfg.Prominence, "prominence", cfg.Prominence, "Minimum peak prominence")
	fs.BoolVar(&cfg.CalculateBoxplot, "boxplot", false, "Compute boxplot statistics")
	fs.BoolVar(&cfg.CalculateMeanStd, "meanstd", false, "Compute the mean spectrum and standard deviation")
	fs.BoolVar(&cfg.ShowMovingAverage, "ma", false, "Compute a moving average per spectrum")
	fs.IntVar(&cfg.MovingAverageWindow, "ma-window", cfg.MovingAverageWindow, "Moving average window")
	fs.StringVar(&opts.preset, "preset", "", "Use a stored preset instead of the flags above")
	fs.StringVar(&opts.out, "out", "", "Write the result to a file (.zip, .parquet or .json)")
	fs.BoolVar(&opts.analyze, "analyze", false, "Ask the configured language model to interpret the result")
	fs.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall time limit")

	if err := fs.Parse(flagArgs); err != nil {
		return opts, nil, err
	}
	paths = append(paths, fs.Args()...)
	if len(paths) == 0 {
		return opts, nil, errors.New("at least one spectrum file is required\nUsage: spectra process <files...> [flags]")
	}
	return opts, paths, nil
}

func handleProcess(args []string) error {
	log := logger.GetLogger()

	opts, paths, err := parseProcessFlags(args)
	if err != nil {
		return err
	}

	files := make([]spectra.UploadedFile, 0, len(paths))
	var total uint64
	for _, p := range paths {
		data, err := utils.ReadFileLimited(p, maxInputBytes)
		if err != nil {
			return err
		}
		files = append(files, spectra.UploadedFile{Name: filepath.Base(p), Content: data})
		total += uint64(len(data))
	}
	log.Infof("Read %d files (%s)", len(files), humanize.Bytes(total))

	var svcOpts []spectra.Option
	if opts.analyze {
		client, err := newAnalyzer()
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, spectra.WithAnalyzer(client))
	}

	svc, err := createService(svcOpts...)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	parsed, err := svc.ParseFiles(ctx, files)
	if err != nil {
		return err
	}

	names := make([]string, len(parsed))
	for i, sp := range parsed {
		names[i] = sp.Name
	}

	cfg, err := svc.ResolveConfig(opts.preset, opts.cfg)
	if err != nil {
		return err
	}
	res, err := svc.Process(ctx, spectra.ProcessRequest{
		FileNames: names,
		Spectra:   parsed,
		Config:    cfg,
	})
	if err != nil {
		return err
	}

	if err := writeResult(os.Stdout, opts.out, names, cfg, res); err != nil {
		return err
	}

	if opts.analyze {
		text, err := svc.Analyze(ctx, names, res)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "\nAnalysis:")
		fmt.Fprintln(os.Stderr, text)
	}
	return nil
}

// newAnalyzer builds the language-model client from the shared configuration.
func newAnalyzer() (analysis.Analyzer, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	if !cfg.Analysis.Enabled() {
		return nil, fmt.Errorf("analysis requested but OPENROUTER_API_KEY is not set")
	}
	client, err := analysis.NewOpenRouterClient(cfg.Analysis.APIKey,
		analysis.WithBaseURL(cfg.Analysis.BaseURL),
		analysis.WithModel(cfg.Analysis.Model),
		analysis.WithHTTPClient(&http.Client{Timeout: cfg.Analysis.Timeout}),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// writeResult writes res as JSON to stdout, or to out in the format its
// extension selects.
func writeResult(stdout io.Writer, out string, names []string, cfg pipeline.TransformConfig, res *pipeline.Result) error {
	if out == "" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(out)) {
	case ".zip":
		b, err := newBundle(names, cfg, res)
		if err != nil {
			return err
		}
		if err := export.WriteZip(&buf, b); err != nil {
			return err
		}
	case ".parquet":
		b, err := newBundle(names, cfg, res)
		if err != nil {
			return err
		}
		if err := export.WriteParquet(&buf, b); err != nil {
			return err
		}
	default:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	}

	if err := utils.WriteFileAtomic(out, buf.Bytes()); err != nil {
		return err
	}
	logger.GetLogger().Infof("Wrote %s (%s)", out, humanize.Bytes(uint64(buf.Len())))
	return nil
}

// newBundle packages a result for export, with the run parameters as
// mean spectrum metadata.
func newBundle(names []string, cfg pipeline.TransformConfig, res *pipeline.Result) (export.Bundle, error) {
	params, err := configParams(cfg)
	if err != nil {
		return export.Bundle{}, err
	}
	b := export.Bundle{
		Names:       names,
		Frequencies: res.Frequencies,
		Amplitudes:  res.Amplitudes,
		PeaksInfo:   res.PeaksInfo,
		Params:      params,
	}
	if len(res.Mean) > 0 && len(res.Frequencies) > 0 {
		b.MeanFrequencies = res.Frequencies[0]
		b.Mean = res.Mean
	}
	return b, nil
}

func configParams(cfg pipeline.TransformConfig) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}
	params := make(map[string]any)
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	return params, nil
}

func handlePresets(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: spectra presets list | show <name> | delete <name>")
	}

	svc, err := createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	switch args[0] {
	case "list":
		presets, err := svc.ListPresets()
		if err != nil {
			return err
		}
		if len(presets) == 0 {
			fmt.Println("No presets stored")
			return nil
		}
		fmt.Printf("Found %d preset(s):\n\n", len(presets))
		for i, p := range presets {
			fmt.Printf("%d. %s (updated %s)\n", i+1, p.Name, humanize.Time(p.UpdatedAt))
		}
		return nil

	case "show":
		if len(args) < 2 {
			return errors.New("usage: spectra presets show <name>")
		}
		p, err := svc.GetPreset(args[1])
		if err != nil {
			return presetError(args[1], err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)

	case "delete":
		if len(args) < 2 {
			return errors.New("usage: spectra presets delete <name>")
		}
		if err := svc.DeletePreset(args[1]); err != nil {
			return presetError(args[1], err)
		}
		fmt.Printf("Deleted preset %q\n", args[1])
		return nil

	default:
		return fmt.Errorf("unknown presets command: %s", args[0])
	}
}

func presetError(name string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("preset %q not found", name)
	}
	return err
}

func handleRuns(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "Number of runs to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", *limit)
	}

	svc, err := createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	runs, err := svc.ListRuns(*limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("%s  %-7s  %3d spectra  %6dms  %s\n",
			humanize.Time(r.CreatedAt), r.Status, r.SpectraCount, r.DurationMs, strings.Join(r.FileNames, ", "))
		if r.Error != "" {
			fmt.Printf("    error: %s\n", r.Error)
		}
	}
	return nil
}

func printUsage() {
	fmt.Println("spectra - spectral data processing CLI")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  -db <path>        Path to SQLite database (env: SPECTRA_DB_PATH, default: spectra.sqlite3)")
	fmt.Println("\nUsage:")
	fmt.Println("  spectra [global-options] process <files...> [flags]")
	fmt.Println("  spectra [global-options] presets list")
	fmt.Println("  spectra [global-options] presets show <name>")
	fmt.Println("  spectra [global-options] presets delete <name>")
	fmt.Println("  spectra [global-options] runs [-limit N]")
	fmt.Println("\nProcess flags:")
	fmt.Println("  -min -max                     Frequency range")
	fmt.Println("  -baseline -lam -p             Baseline removal")
	fmt.Println("  -smooth -window -polyorder    Savitzky-Golay smoothing")
	fmt.Println("  -normalize                    SNV normalization")
	fmt.Println("  -peaks -width -prominence     Peak detection")
	fmt.Println("  -boxplot -meanstd             Batch statistics")
	fmt.Println("  -ma -ma-window                Moving average")
	fmt.Println("  -preset <name>                Use a stored preset")
	fmt.Println("  -out <file>                   Write .zip, .parquet or .json instead of printing JSON")
	fmt.Println("  -analyze                      Interpret the result (needs OPENROUTER_API_KEY)")
	fmt.Println("\nExamples:")
	fmt.Println("  spectra process a.csv b.esp -baseline -smooth -peaks -meanstd")
	fmt.Println("  spectra --db lab.sqlite3 process *.txt -preset raman -out result.zip")
}
