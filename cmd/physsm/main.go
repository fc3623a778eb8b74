package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/physsm/internal/config"
	"github.com/san-kum/physsm/internal/experiment"
	"github.com/san-kum/physsm/internal/logging"
	"github.com/san-kum/physsm/internal/params"
	"github.com/san-kum/physsm/internal/storage"
	"github.com/san-kum/physsm/internal/viz"
)

var (
	configFile string
	dataDir    string
	variant    string
	schemaFile string
	strict     bool
	verbose    bool
	planDir    string
	workers    int

	cfg      *config.Config
	logger   *zap.Logger
	registry *experiment.Registry
)

var errUsage = errors.New("usage: physsm <parameter_file>")

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "physsm <parameter_file>",
		Short:         "run mock experiments from colon-delimited parameter files",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			return nil
		},
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: runParameterFile,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "run store directory")
	pf.StringVar(&variant, "variant", config.DefaultVariant, "experiment variant")
	pf.StringVar(&schemaFile, "schema", "", "schema file (yaml) registered as a custom variant")
	pf.BoolVar(&strict, "strict", false, "reject repeated keys instead of keeping the last value")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	showCmd := &cobra.Command{
		Use:   "show <parameter_file>",
		Short: "print parsed parameters",
		Args:  cobra.ExactArgs(1),
		RunE:  showParameterFile,
	}

	generateCmd := &cobra.Command{
		Use:   "generate <plan.yaml>",
		Short: "write one parameter file per scale value",
		Args:  cobra.ExactArgs(1),
		RunE:  generatePlan,
	}
	generateCmd.Flags().StringVar(&planDir, "dir", ".", "base directory for generated files")

	sweepCmd := &cobra.Command{
		Use:   "sweep <plan.yaml>",
		Short: "generate parameter files and run every one of them",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&planDir, "dir", ".", "base directory for generated files")
	sweepCmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "parallel runs")

	statusCmd := &cobra.Command{
		Use:   "status <plan.yaml>",
		Short: "show which parameter and output files of a plan exist",
		Args:  cobra.ExactArgs(1),
		RunE:  planStatus,
	}
	statusCmd.Flags().StringVar(&planDir, "dir", ".", "base directory for generated files")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export <run_id>",
		Short: "print a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(cfg.DataDir).Export(os.Stdout, args[0])
		},
	}

	variantsCmd := &cobra.Command{
		Use:   "variants",
		Short: "list experiment variants and their keys",
		Args:  cobra.NoArgs,
		RunE:  listVariants,
	}

	templateCmd := &cobra.Command{
		Use:   "template <variant>",
		Short: "print an example parameter file for a variant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := registry.Get(args[0])
			if err != nil {
				return err
			}
			if v.Example == "" {
				return fmt.Errorf("variant %s has no example", v.Name)
			}
			fmt.Print(v.Example)
			return nil
		},
	}

	rootCmd.AddCommand(showCmd, generateCmd, sweepCmd, statusCmd, listCmd, exportCmd, variantsCmd, templateCmd)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
		} else {
			fmt.Fprintln(os.Stderr, viz.Error.Render("error: "+err.Error()))
		}
		stop()
		os.Exit(1)
	}
}

// setup loads the config file, applies explicitly set flags on top of it and
// builds the logger and variant registry.
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("variant") {
		cfg.Variant = variant
	}
	if flags.Changed("schema") {
		cfg.SchemaFile = schemaFile
	}
	if flags.Changed("strict") {
		cfg.RejectDuplicates = strict
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var err error
	logger, err = logging.New(cfg.Verbose)
	if err != nil {
		return err
	}

	registry = experiment.NewRegistry()
	if cfg.SchemaFile != "" {
		schema, err := params.LoadSchema(cfg.SchemaFile)
		if err != nil {
			return fmt.Errorf("failed to load schema: %w", err)
		}
		v, err := experiment.SchemaVariant(cfg.SchemaVariant, schema)
		if err != nil {
			return err
		}
		registry.Register(v)
		logger.Debug("registered schema variant", zap.String("name", v.Name), zap.String("file", cfg.SchemaFile))
	}
	return nil
}

func newExperiment() (*experiment.Experiment, error) {
	v, err := registry.Get(cfg.Variant)
	if err != nil {
		return nil, err
	}
	return experiment.New(v, params.Options{
		Logger:           logger,
		RejectDuplicates: cfg.RejectDuplicates,
	}), nil
}

func runParameterFile(cmd *cobra.Command, args []string) error {
	paramFile := args[0]

	exp, err := newExperiment()
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", viz.Title.Render("reading parameters:"), paramFile)
	res, err := exp.Prepare(cmd.Context(), paramFile)
	if err != nil {
		return err
	}

	fmt.Printf(">> performing mock %s experiment using %s.\n", exp.Variant().Name, res.Report.Summary)
	if err := exp.Write(res); err != nil {
		return err
	}
	fmt.Printf(">> wrote %s\n", viz.Value.Render(res.OutputFile))

	return storeRun(exp.Variant().Name, res)
}

func storeRun(variantName string, res *experiment.Result) error {
	if !cfg.StoreRuns {
		return nil
	}
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(&storage.RunRecord{
		Variant:    variantName,
		ParamFile:  res.ParamFile,
		OutputFile: res.OutputFile,
		Params:     res.Params.Strings(),
		Labels:     res.Report.Labels,
		Values:     res.Report.Values,
	})
	if err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}
	logger.Debug("run stored", zap.String("id", runID))
	fmt.Printf("%s %s\n", viz.Subtle.Render("run id:"), runID)
	return nil
}

func showParameterFile(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment()
	if err != nil {
		return err
	}
	set, err := exp.Load(args[0])
	if err != nil {
		return err
	}

	schema := exp.Variant().Schema
	fmt.Println(viz.Title.Render(fmt.Sprintf("%s (%s)", args[0], exp.Variant().Name)))
	fmt.Print(viz.Panel.Render(strings.TrimRight(viz.RenderSet(schema, set), "\n")))
	fmt.Println()

	for _, f := range schema.Fields() {
		if f.Kind != params.KindFloatList {
			continue
		}
		values, ok := set.Floats(f.Key)
		if !ok || len(values) == 0 {
			continue
		}
		fmt.Println()
		fmt.Println(viz.PlotList(values, f.Key))
	}
	return nil
}

func generatePlan(cmd *cobra.Command, args []string) error {
	plan, err := experiment.LoadPlan(args[0])
	if err != nil {
		return err
	}
	jobs, err := plan.Build(planDir)
	if err != nil {
		return err
	}
	fmt.Println(">> writing parameter files:")
	for _, job := range jobs {
		fmt.Printf("-- %s\n", job.ParamFile)
	}
	return nil
}

func planStatus(cmd *cobra.Command, args []string) error {
	plan, err := experiment.LoadPlan(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCALE\tPARAMETERS\tOUTPUT\tFILE")
	for _, s := range plan.Status(planDir) {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Scale, mark(s.HasParams), mark(s.HasOutput), s.ParamFile)
	}
	return w.Flush()
}

func mark(ok bool) string {
	if ok {
		return viz.Success.Render("found")
	}
	return viz.Warning.Render("missing")
}

func runSweep(cmd *cobra.Command, args []string) error {
	plan, err := experiment.LoadPlan(args[0])
	if err != nil {
		return err
	}
	exp, err := newExperiment()
	if err != nil {
		return err
	}

	jobs, err := plan.Build(planDir)
	if err != nil {
		return err
	}
	fmt.Printf("running %d %s jobs with %d workers...\n", len(jobs), exp.Variant().Name, cfg.Workers)

	results, err := experiment.Sweep(cmd.Context(), exp, jobs, cfg.Workers)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCALE\tOUTPUT\tRESULTS")
	for i, res := range results {
		out, err := experiment.ReadOutput(res.OutputFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", jobs[i].Scale, res.OutputFile, formatOutput(out))
		if err := storeRun(exp.Variant().Name, res); err != nil {
			return err
		}
	}
	return w.Flush()
}

func formatOutput(out *experiment.Output) string {
	if len(out.Values) > 0 {
		labels := make([]string, 0, len(out.Values))
		for l := range out.Values {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		parts := make([]string, len(labels))
		for i, l := range labels {
			parts[i] = fmt.Sprintf("%s=%.2f", l, out.Values[l])
		}
		return strings.Join(parts, " ")
	}
	var rows []string
	for _, row := range out.Rows {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = fmt.Sprintf("%.2f", v)
		}
		rows = append(rows, strings.Join(parts, ", "))
	}
	return strings.Join(rows, "; ")
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs stored")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVARIANT\tTIME\tPARAMETERS\tRESULTS")
	for _, r := range runs {
		parts := make([]string, len(r.Values))
		for i, v := range r.Values {
			parts[i] = fmt.Sprintf("%s=%.2f", r.Labels[i], v)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Variant, r.Timestamp.Format("2006-01-02 15:04:05"), r.ParamFile, strings.Join(parts, " "))
	}
	return w.Flush()
}

func listVariants(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tKEYS")
	for _, name := range registry.List() {
		v, err := registry.Get(name)
		if err != nil {
			return err
		}
		var keys []string
		for _, f := range v.Schema.Fields() {
			k := fmt.Sprintf("%s:%s", f.Key, f.Kind)
			if !f.Required {
				k += "?"
			}
			keys = append(keys, k)
		}
		fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(keys, " "))
	}
	return w.Flush()
}
