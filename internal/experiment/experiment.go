package experiment

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/san-kum/physsm/internal/params"
)

// Result is the outcome of one run.
type Result struct {
	ParamFile  string
	OutputFile string
	Params     *params.Set
	Report     *Report
}

// Experiment runs one variant against parameter files. It holds no
// per-run state and may be shared between goroutines.
type Experiment struct {
	variant *Variant
	loader  *params.Loader
	logger  *zap.Logger
}

func New(v *Variant, opts params.Options) *Experiment {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Experiment{
		variant: v,
		loader:  params.NewLoader(v.Schema, opts),
		logger:  logger.With(zap.String("variant", v.Name)),
	}
}

func (e *Experiment) Variant() *Variant {
	return e.variant
}

// Load parses paramFile without computing anything.
func (e *Experiment) Load(paramFile string) (*params.Set, error) {
	return e.loader.Load(paramFile)
}

// Run loads paramFile, computes the report and writes it to the file named
// by the outputfile parameter, creating or truncating it.
func (e *Experiment) Run(ctx context.Context, paramFile string) (*Result, error) {
	res, err := e.Prepare(ctx, paramFile)
	if err != nil {
		return nil, err
	}
	if err := e.Write(res); err != nil {
		return nil, err
	}
	return res, nil
}

// Prepare loads paramFile and computes the report without touching the
// output file.
func (e *Experiment) Prepare(ctx context.Context, paramFile string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set, err := e.loader.Load(paramFile)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("parameters loaded", zap.String("file", paramFile), zap.Strings("keys", set.Keys()))

	report, err := e.variant.Compute(set)
	if err != nil {
		return nil, fmt.Errorf("compute %s: %w", e.variant.Name, err)
	}

	out, _ := set.String(OutputKey)
	return &Result{
		ParamFile:  paramFile,
		OutputFile: out,
		Params:     set,
		Report:     report,
	}, nil
}

// Write stores the report of a prepared result in its output file.
func (e *Experiment) Write(res *Result) error {
	if err := WriteReport(res.OutputFile, res.Report); err != nil {
		return err
	}
	e.logger.Debug("report written", zap.String("file", res.OutputFile))
	return nil
}

// WriteReport creates or truncates path and writes the report body.
func WriteReport(path string, r *Report) error {
	if path == "" {
		return params.IOError(path, fmt.Errorf("empty output file name"))
	}
	f, err := os.Create(path)
	if err != nil {
		return params.IOError(path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(r.Body()); err != nil {
		return params.IOError(path, err)
	}
	if err := f.Close(); err != nil {
		return params.IOError(path, err)
	}
	return nil
}
