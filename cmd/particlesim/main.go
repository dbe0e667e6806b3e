package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/particlesim/internal/automation"
	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/export"
	"github.com/san-kum/particlesim/internal/metrics"
	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/storage"
	"github.com/san-kum/particlesim/internal/vector"
	"github.com/san-kum/particlesim/internal/viz"
)

var (
	dataDir       string
	verbose       bool
	configFile    string
	preset        string
	particles     int
	gravity       float32
	dt            float32
	frames        int
	sampleEvery   int
	seed          int64
	noInteraction bool
	metricNames   []string
	frameRate     int
	theme         string
	outPath       string
	force         bool
	benchRuns     int
	benchFrames   int
	showPreset    string
	initPreset    string
	sweepParam    string
	sweepMin      float64
	sweepMax      float64
	sweepSteps    int
	sampleIndex   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "particlesim",
		Short:        "particles falling and repelling inside a box",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".particlesim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store sampled frames",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to simulate")
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", config.DefaultSampleEvery, "store every n-th frame")
	runCmd.Flags().StringSliceVar(&metricNames, "metrics", nil, "metrics to record (default all)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation with live terminal visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "color theme")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot kinetic energy and mean height of a run (default latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export sampled frames of a run to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}
	presetsCmd.Flags().StringVar(&showPreset, "show", "", "print the named preset as YAML")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure step throughput over population sizes",
		Args:  cobra.NoArgs,
		RunE:  bench,
	}
	benchCmd.Flags().IntVar(&benchRuns, "runs", 4, "concurrent simulations per row")
	benchCmd.Flags().IntVar(&benchFrames, "frames", 50, "frames per simulation")
	benchCmd.Flags().Float32Var(&dt, "dt", config.DefaultDt, "timestep")

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a configuration file (.yaml or .toml)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&initPreset, "preset", "default", "preset to write")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations from YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter and tabulate metrics",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames per point")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "gravity", fmt.Sprintf("parameter to sweep %v", automation.SweepParams()))
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 20, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of points")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "render one stored frame to SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshot,
	}
	snapshotCmd.Flags().IntVar(&sampleIndex, "sample", -1, "sample index (negative counts from the end)")
	snapshotCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, presetsCmd, benchCmd, initCmd, scenarioCmd, sweepCmd, snapshotCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&particles, "particles", sim.DefaultParticleCount, "number of particles")
	cmd.Flags().Float32Var(&gravity, "gravity", sim.DefaultGravity, "downward acceleration")
	cmd.Flags().Float32Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	cmd.Flags().BoolVar(&noInteraction, "no-interaction", false, "disable pairwise repulsion")
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	name := "default"
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg, name = p, preset
	}

	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fileCfg
		if preset == "" {
			name = "custom"
		}
		slog.Debug("loaded config", "path", configFile)
	}

	flags := cmd.Flags()
	if flags.Changed("particles") {
		cfg.Particles = particles
	}
	if flags.Changed("gravity") {
		cfg.Gravity = gravity
	}
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("frames") {
		cfg.Run.Frames = frames
	}
	if flags.Changed("sample-every") {
		cfg.Run.SampleEvery = sampleEvery
	}
	if flags.Changed("no-interaction") {
		cfg.Interaction.Enabled = !noInteraction
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, name, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ms, err := experiment.NewRegistry().Metrics(metricNames)
	if err != nil {
		return err
	}

	s, err := sim.New(cfg.Sim())
	if err != nil {
		return err
	}

	rc := experiment.RunConfig{Dt: cfg.Run.Dt, Frames: cfg.Run.Frames, SampleEvery: cfg.Run.SampleEvery}
	slog.Info("running", "preset", name, "particles", cfg.Particles, "frames", rc.Frames, "dt", rc.Dt, "seed", cfg.Seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := experiment.New(s, ms...).Run(ctx, rc)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		slog.Warn("run interrupted, saving partial result", "steps", result.StepsTaken)
	}
	slog.Debug("run finished", "elapsed", time.Since(start), "bounces", result.Bounces)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	runID, err := st.Save(storage.NewMetadata(name, s.Config(), rc), result)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	fmt.Printf("run saved: %s\n", runID)
	fmt.Printf("steps: %d  samples: %d  bounces: %d\n", result.StepsTaken, len(result.Times), result.Bounces)
	fmt.Println("\nmetrics:")
	for _, m := range ms {
		fmt.Printf("  %-16s %.6f\n", m.Name(), result.Metrics[m.Name()])
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	s, err := sim.New(cfg.Sim())
	if err != nil {
		return err
	}

	m := viz.NewModel(s, cfg.Run.Dt, frameRate, name).WithTheme(theme)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func resolveRunID(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tPARTICLES\tFRAMES\tDT\tREPULSION\tKE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3f\t%v\t%.3f\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Frames,
			run.Dt,
			run.Interaction,
			run.Metrics["kinetic_energy"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRunID(st, args)
	if err != nil {
		return err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	if len(series.Times) < 2 {
		return fmt.Errorf("not enough samples to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particles: %d  gravity: %.2f  repulsion: %v\n", meta.Particles, meta.Gravity, meta.Interaction)
	fmt.Printf("samples: %d\n\n", len(series.Times))

	for _, plot := range []struct {
		data    []float64
		caption string
	}{
		{series.Energy, "mean kinetic energy"},
		{series.Height, "mean height"},
	} {
		graph := asciigraph.Plot(plot.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(plot.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRunID(st, args)
	if err != nil {
		return err
	}

	if outPath == "" {
		return st.ExportJSONStdout(runID)
	}
	if err := st.ExportJSON(runID, outPath); err != nil {
		return err
	}
	slog.Info("exported", "run", runID, "path", outPath)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRunID(st, args)
	if err != nil {
		return err
	}

	if outPath == "" {
		return st.CopyFrames(runID, os.Stdout)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := st.CopyFrames(runID, f); err != nil {
		return err
	}
	slog.Info("exported", "run", runID, "path", outPath)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	if showPreset != "" {
		cfg := config.GetPreset(showPreset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s", showPreset)
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPARTICLES\tGRAVITY\tREPULSION\tBOX\tDT")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%v\t%.0fx%.0fx%.0f\t%.3f\n",
			name,
			cfg.Particles,
			cfg.Gravity,
			cfg.Interaction.Enabled,
			cfg.Bounds.Width, cfg.Bounds.Height, cfg.Bounds.Depth,
			cfg.Run.Dt,
		)
	}
	return w.Flush()
}

func bench(cmd *cobra.Command, args []string) error {
	counts := []int{100, 500, 1000, 2000}
	rc := experiment.RunConfig{Dt: dt, Frames: benchFrames, SampleEvery: benchFrames}

	fmt.Printf("benchmarking %d concurrent runs of %d frames\n\n", benchRuns, benchFrames)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tREPULSION\tTIME\tFRAMES/SEC\tPAIRS/SEC\tCONTAINED")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, n := range counts {
		for _, interaction := range []bool{false, true} {
			cfg := sim.DefaultConfig()
			cfg.ParticleCount = n
			cfg.EnableInteraction = interaction

			ens := experiment.NewEnsemble(cfg, benchRuns, 42, func() []metrics.Metric {
				return []metrics.Metric{metrics.NewContainment()}
			})

			start := time.Now()
			results, err := ens.Run(ctx, rc)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			total := float64(benchRuns * benchFrames)
			pairs := 0.0
			if interaction {
				pairs = total * float64(n) * float64(n) / elapsed.Seconds()
			}

			fmt.Fprintf(w, "%d\t%v\t%v\t%.0f\t%.3g\t%.2f\n",
				n, interaction, elapsed.Round(time.Millisecond), total/elapsed.Seconds(), pairs,
				experiment.Mean(results, "containment"))
		}
	}

	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "particlesim.yaml"
	if len(args) > 0 {
		path = args[0]
	}

	cfg := config.GetPreset(initPreset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", initPreset, config.ListPresets())
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &automation.Runner{Store: st, Log: slog.Default()}
	results, err := r.RunScenario(ctx, sc)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN\tSTEPS\tBOUNCES\tKE\tCONTAINED")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.3f\t%.2f\n",
			res.Label, res.RunID, res.Result.StepsTaken, res.Result.Bounces,
			res.Result.Metrics["kinetic_energy"], res.Result.Metrics["containment"])
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &automation.Runner{Log: slog.Default()}
	results, err := r.RunSweep(ctx, cfg, automation.Sweep{Param: sweepParam, Min: sweepMin, Max: sweepMax, Steps: sweepSteps})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tKE\tDRIFT\tHEIGHT\tBOUNCES\tCONTAINED\n", sweepParam)
	for _, res := range results {
		fmt.Fprintf(w, "%g\t%.3f\t%.3f\t%.2f\t%d\t%.2f\n",
			res.Value,
			res.Metrics["kinetic_energy"],
			res.Metrics["energy_drift"],
			res.Metrics["mean_height"],
			res.Bounces,
			res.Metrics["containment"],
		)
	}
	return w.Flush()
}

func snapshot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRunID(st, args)
	if err != nil {
		return err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	_, samples, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("run %s has no frames", runID)
	}

	idx := sampleIndex
	if idx < 0 {
		idx += len(samples)
	}
	if idx < 0 || idx >= len(samples) {
		return fmt.Errorf("sample %d out of range (run has %d)", sampleIndex, len(samples))
	}

	box := physics.Box{Max: vector.New(meta.Width, meta.Height, meta.Depth)}
	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if err := export.WriteSnapshot(out, box, samples[idx], export.DefaultSnapshotOptions()); err != nil {
		return err
	}
	slog.Debug("snapshot written", "run", runID, "sample", idx)
	return nil
}
