package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/monte/internal/campaign"
	"github.com/san-kum/monte/internal/config"
	"github.com/san-kum/monte/internal/logging"
	"github.com/san-kum/monte/internal/models"
	"github.com/san-kum/monte/internal/sampling"
	"github.com/san-kum/monte/internal/storage"
	"github.com/san-kum/monte/internal/viz"
)

var (
	dataDir  string
	backend  string
	logLevel string
	// run
	configFile string
	preset     string
	live       bool
	theme      string
	seed       int64
	nStates    int
	replicas   int
	// inspect
	plotObservable string
	observable     string
	component      int
	markdown       bool
	outFile        string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "monte",
		Short:        "Monte Carlo campaign runner",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config or MONTE_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&backend, "storage", "", "storage backend: files or sqlite")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a campaign",
		Args:  cobra.NoArgs,
		RunE:  runCampaign,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().BoolVar(&live, "live", false, "show the live campaign view")
	runCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "live view theme: "+strings.Join(viz.ThemeNames(), ", "))
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (overrides config)")
	runCmd.Flags().IntVar(&nStates, "states", 0, "number of states (overrides config)")
	runCmd.Flags().IntVar(&replicas, "replicas", 1, "independent copies of the campaign, each with its own seed")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	listCmd.Flags().BoolVar(&markdown, "markdown", false, "render as markdown")

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and convergence",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot sampled observables",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotObservable, "observable", "", "observable to plot (default all)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "autocorrelation analysis of one observable",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&observable, "observable", "energy", "observable")
	analyzeCmd.Flags().IntVar(&component, "component", 0, "component index")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, analyzeCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves defaults, preset or file, environment and flags, in
// that order.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case preset != "":
		cfg = config.GetPreset("chain", preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(config.ListPresets("chain"), ", "))
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if backend != "" {
		cfg.Storage = backend
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if seed != 0 {
		cfg.Model.Seed = seed
	}
	if nStates > 0 {
		cfg.Campaign.NStates = nStates
	}
	return cfg, cfg.Validate()
}

func openBackend() (storage.Backend, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.Open(cfg.Storage, cfg.DataDir)
}

func runCampaign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if replicas < 1 {
		return fmt.Errorf("replicas must be >= 1, got %d", replicas)
	}

	var logOut io.Writer = os.Stderr
	if live {
		logOut = io.Discard
	}
	logger := logging.New(cfg.LogLevel, logOut)

	registry := sampling.NewRegistry[*models.Chain]()
	if err := models.Register(registry, cfg.Model.Coupling); err != nil {
		return err
	}

	st, err := storage.Open(cfg.Storage, cfg.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	var feed *viz.Feed
	campaigns := make([]campaign.Campaign[*models.Chain], replicas)
	for i := range campaigns {
		name := cfg.Name
		if replicas > 1 {
			name = fmt.Sprintf("%s-%d", cfg.Name, i)
		}
		opts := []campaign.Option{
			campaign.WithLogger(logger.With("campaign", name)),
			campaign.WithClock(time.Now),
		}
		if live {
			if feed == nil {
				feed = viz.NewFeed(256)
			}
			opts = append(opts, campaign.WithObserver(feed.For(name)))
		}
		runner, err := campaign.NewRunner(registry, cfg.RunnerConfig(), opts...)
		if err != nil {
			return err
		}
		gen, err := campaign.NewIncremental(cfg.InitialState(), cfg.Campaign.Increment, cfg.Campaign.NStates, cfg.Campaign.DependentRuns)
		if err != nil {
			return err
		}
		campaigns[i] = campaign.Campaign[*models.Chain]{
			Name:      name,
			Generator: gen,
			Runner:    runner,
			Stepper:   models.NewMetropolis(cfg.Model.Coupling, cfg.Model.Seed+int64(i)),
			Writer:    storage.Writer[*models.Chain](st),
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var results [][]*campaign.RunResult[*models.Chain]
	work := func(ctx context.Context) error {
		var err error
		results, err = campaign.RunAll(ctx, campaigns, cfg.Workers)
		return err
	}

	logger.Info("campaign started", "name", cfg.Name, "states", cfg.Campaign.NStates,
		"replicas", replicas, "storage", cfg.Storage, "data_dir", cfg.DataDir)
	if live {
		err = viz.Run(ctx, viz.NewModel(feed, "monte: "+cfg.Name, cfg.Completion.Cutoff.MaxCount, theme), work)
	} else {
		err = work(ctx)
	}
	printSummary(campaigns, results)
	if err != nil {
		logger.Error("campaign failed", slog.Any("err", err))
		return err
	}
	return nil
}

func printSummary(campaigns []campaign.Campaign[*models.Chain], results [][]*campaign.RunResult[*models.Chain]) {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"CAMPAIGN", "RUN", "CONDITIONS", "REASON", "PASSES", "SAMPLES", "SKIPPED"})
	for i, runs := range results {
		for _, res := range runs {
			t.AppendRow(table.Row{
				campaigns[i].Name, res.Run, res.Initial.String(), res.Completion.Reason,
				res.Passes, res.Completion.Progress.Samples, res.Skipped,
			})
		}
	}
	fmt.Println(t.Render())
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset("chain", args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset %q", args[0])
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"PRESET", "STATES", "INITIAL", "INCREMENT", "DEPENDENT"})
	for _, name := range config.ListPresets("chain") {
		cfg := config.GetPreset("chain", name)
		t.AppendRow(table.Row{name, cfg.Campaign.NStates, cfg.Campaign.InitialConditions.String(),
			cfg.Campaign.Increment.String(), cfg.Campaign.DependentRuns})
	}
	fmt.Println(t.Render())
	return nil
}
