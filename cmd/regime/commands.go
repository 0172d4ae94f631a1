package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/hmmgo/core/model"
	"github.com/YuminosukeSato/hmmgo/hmm"
	"github.com/YuminosukeSato/hmmgo/internal/config"
	"github.com/YuminosukeSato/hmmgo/metrics"
	"github.com/YuminosukeSato/hmmgo/pkg/log"
	"github.com/YuminosukeSato/hmmgo/plotting"
)

func NewCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "regime [command] [flags] [args]",
		Short:         "regime detects market regimes with a Gaussian HMM",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "`<Path>` of the YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "`<Level>` debug, info, warn or error")

	trainCmd := &cobra.Command{
		Use:   "train [flags]",
		Short: "Train a model on closing prices and report regimes",
		RunE:  doTrain,
	}
	trainCmd.Flags().StringP("input", "i", "", "`<Path>` of the CSV with closing prices")
	trainCmd.Flags().String("column", "", "`<Column>` name (or index without header) of the closes")
	trainCmd.Flags().Int("states", 0, "number of hidden states")
	trainCmd.Flags().Int("max-iter", 0, "maximum Baum-Welch iterations")
	trainCmd.Flags().Float64("tol", 0, "convergence tolerance on the log-likelihood")
	trainCmd.Flags().Uint64("seed", 0, "seed of the random initialization")
	trainCmd.Flags().String("model-out", "", "`<Path>` to save the model (.json weights or .gob)")
	trainCmd.Flags().String("plot-dir", "", "`<Dir>` to write loglik.png and regimes.png")
	trainCmd.Flags().Int("forecast", 0, "number of simulated future observations")

	decodeCmd := &cobra.Command{
		Use:   "decode [flags] <model>",
		Short: "Decode the regime of every observation with a saved model",
		RunE:  doDecode,
	}
	decodeCmd.Args = cobra.ExactArgs(1)
	decodeCmd.Flags().StringP("input", "i", "", "`<Path>` of the CSV with closing prices")
	decodeCmd.Flags().String("column", "", "`<Column>` name (or index without header) of the closes")

	simulateCmd := &cobra.Command{
		Use:   "simulate [flags] <model>",
		Short: "Generate an observation sequence from a saved model",
		RunE:  doSimulate,
	}
	simulateCmd.Args = cobra.ExactArgs(1)
	simulateCmd.Flags().Int("length", 20, "length of the generated sequence")
	simulateCmd.Flags().Uint64("seed", 123, "seed of the generator")

	rootCmd.AddCommand(
		trainCmd,
		decodeCmd,
		simulateCmd,
	)
	return rootCmd
}

// loadConfig reads the --config file with environment overrides, applies the
// flags the user set explicitly and installs the global logger.
func loadConfig(cmd *cobra.Command) (*config.Config, log.Logger, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if f := flags.Lookup("input"); f != nil && f.Changed {
		cfg.Input.Path = f.Value.String()
	}
	if f := flags.Lookup("column"); f != nil && f.Changed {
		cfg.Input.Column = f.Value.String()
	}
	if flags.Lookup("states") != nil && flags.Changed("states") {
		cfg.Training.NStates, _ = flags.GetInt("states")
	}
	if flags.Lookup("max-iter") != nil && flags.Changed("max-iter") {
		cfg.Training.MaxIterations, _ = flags.GetInt("max-iter")
	}
	if flags.Lookup("tol") != nil && flags.Changed("tol") {
		cfg.Training.Tolerance, _ = flags.GetFloat64("tol")
	}
	if flags.Lookup("seed") != nil && flags.Changed("seed") && cmd.Name() == "train" {
		cfg.Training.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Lookup("model-out") != nil && flags.Changed("model-out") {
		cfg.Output.ModelPath, _ = flags.GetString("model-out")
	}
	if flags.Lookup("plot-dir") != nil && flags.Changed("plot-dir") {
		cfg.Output.PlotDir, _ = flags.GetString("plot-dir")
	}
	if flags.Lookup("forecast") != nil && flags.Changed("forecast") {
		cfg.Output.ForecastSteps, _ = flags.GetInt("forecast")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := log.NewZerologLogger(log.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, err
	}
	log.SetLogger(logger)
	return cfg, logger, nil
}

func doTrain(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	obs, err := loadObservations(cfg.Input)
	if err != nil {
		return err
	}

	tc := cfg.Training
	est := hmm.NewGaussianHMM(
		hmm.WithNStates(tc.NStates),
		hmm.WithMaxIter(tc.MaxIterations),
		hmm.WithTol(tc.Tolerance),
		hmm.WithRandomState(tc.Seed),
		hmm.WithKeepHistory(tc.KeepHistory),
		hmm.WithLogger(logger),
	)
	logger.Debug("training",
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, len(obs),
		log.RandomSeedKey, tc.Seed,
	)
	if err := est.Fit(obs); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	m := est.Model()
	fmt.Fprintln(out, m.String())
	trace := est.LogLikelihoodTrace()
	fmt.Fprintf(out, "converged=%t iterations=%d log_likelihood=%.6f\n",
		est.Converged(), est.NIterations(), trace[len(trace)-1])
	if d := est.Diagnostics(); !d.Clean() {
		fmt.Fprintf(out, "diagnostics: %s\n", d)
	}

	path, err := est.Predict(obs)
	if err != nil {
		return err
	}
	names := hmm.StateNames(m)
	if err := writeSummary(out, obs, path, names); err != nil {
		return err
	}
	if err := writeFit(out, m, obs, path); err != nil {
		return err
	}

	if steps := cfg.Output.ForecastSteps; steps > 0 {
		fmt.Fprintf(out, "\nForecast (%d steps):\n", steps)
		for i, v := range hmm.PredictMovements(m, steps) {
			fmt.Fprintf(out, "  t+%d: %+.4f\n", i+1, v)
		}
	}

	if p := cfg.Output.ModelPath; p != "" {
		if err := saveModel(est, p); err != nil {
			return err
		}
		logger.Info("model saved", "path", p)
	}
	if dir := cfg.Output.PlotDir; dir != "" {
		if err := plotting.SaveLogLikelihoodTrace(trace, filepath.Join(dir, "loglik.png")); err != nil {
			return err
		}
		if err := plotting.SaveRegimeChart(obs, path, names, filepath.Join(dir, "regimes.png")); err != nil {
			return err
		}
		logger.Info("plots written", "dir", dir)
	}
	return nil
}

func writeSummary(w io.Writer, obs []float64, path []int, names []string) error {
	summary, err := metrics.RegimeSummary(obs, path, len(names))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nRegimes:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "state\tregime\tcount\tfreq\tmean\tstd")
	for _, s := range summary {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.3f\t%+.4f\t%.4f\n", s.State, names[s.State], s.Count, s.Frequency, s.Mean, s.StdDev)
	}
	return tw.Flush()
}

// writeFit reports how far the observations lie from the mean of their decoded regime.
func writeFit(w io.Writer, m *hmm.ContinuousHMM, obs []float64, path []int) error {
	means := make([]float64, m.NStates())
	for i, e := range m.Emissions() {
		means[i] = e.Mean
	}
	fitted, err := metrics.RegimeFitted(path, means)
	if err != nil {
		return err
	}
	report, err := metrics.FitErrors(obs, fitted)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nFit: rmse=%.4f mae=%.4f r2=%.4f\n", report.RMSE, report.MAE, report.R2)
	return nil
}

func doDecode(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	est, err := loadModel(args[0])
	if err != nil {
		return err
	}
	obs, err := loadObservations(cfg.Input)
	if err != nil {
		return err
	}

	path, err := est.Predict(obs)
	if err != nil {
		return err
	}
	labels, err := hmm.LabelPath(est.Model(), path)
	if err != nil {
		return err
	}
	logger.Info("decoded",
		log.PhaseKey, log.PhaseInference,
		log.OperationKey, log.OperationPredict,
		log.SamplesKey, len(obs),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "t,observation,state,regime")
	for t := range obs {
		fmt.Fprintf(out, "%d,%g,%d,%s\n", t, obs[t], path[t], labels[t])
	}
	return nil
}

func doSimulate(cmd *cobra.Command, args []string) error {
	_, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	est, err := loadModel(args[0])
	if err != nil {
		return err
	}
	length, _ := cmd.Flags().GetInt("length")
	seed, _ := cmd.Flags().GetUint64("seed")

	obs, states, err := est.Sample(length, seed)
	if err != nil {
		return err
	}
	logger.Info("sampled",
		log.PhaseKey, log.PhaseInference,
		log.OperationKey, log.OperationSample,
		log.SamplesKey, length,
		log.RandomSeedKey, seed,
	)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "t,state,observation")
	for t := range obs {
		fmt.Fprintf(out, "%d,%d,%g\n", t, states[t], obs[t])
	}
	return nil
}

func saveModel(est *hmm.GaussianHMM, path string) error {
	if filepath.Ext(path) != ".json" {
		return est.Save(path)
	}
	weights, err := est.ExportWeights()
	if err != nil {
		return err
	}
	return weights.SaveJSON(path)
}

func loadModel(path string) (*hmm.GaussianHMM, error) {
	est := hmm.NewGaussianHMM()
	if filepath.Ext(path) != ".json" {
		if err := est.Load(path); err != nil {
			return nil, err
		}
		return est, nil
	}
	weights, err := model.LoadWeightsJSON(path)
	if err != nil {
		return nil, err
	}
	if err := est.ImportWeights(weights); err != nil {
		return nil, err
	}
	return est, nil
}
