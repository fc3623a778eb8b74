package experiment

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/physsm/internal/params"
)

// FileNaming controls how generated files are named: <name>_<suffix>.<extension>.
type FileNaming struct {
	Name      string `yaml:"name"`
	Extension string `yaml:"extension"`
}

// Plan describes a sweep over scale values. Every scale value gets its own
// parameter file holding the scale variables, the static parameters, the
// scaling parameters for that scale and the output file path.
type Plan struct {
	Name           string                    `yaml:"name"`
	ResultsDir     string                    `yaml:"results_dir"`
	ScaleVariables []string                  `yaml:"scale_variables"`
	Scales         []uint64                  `yaml:"scales"`
	Static         map[string]any            `yaml:"static"`
	Scaling        map[string]map[uint64]any `yaml:"scaling"`
	ParamFile      FileNaming                `yaml:"parameter_file"`
	OutputFile     FileNaming                `yaml:"output_file"`
	OutputKey      string                    `yaml:"output_key"`
	Precision      *int                      `yaml:"precision"`
}

// Job is one scale value of a plan.
type Job struct {
	Scale      uint64
	ParamFile  string
	OutputFile string
}

// JobStatus reports which files of a job exist on disk.
type JobStatus struct {
	Job
	HasParams bool
	HasOutput bool
}

func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return &p, nil
}

// Validate fills defaults and checks the plan for consistency.
func (p *Plan) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name must be set")
	}
	if p.ResultsDir == "" {
		p.ResultsDir = "results"
	}
	if len(p.ScaleVariables) == 0 {
		p.ScaleVariables = []string{"L"}
	}
	if p.ParamFile.Name == "" {
		p.ParamFile.Name = "parameter"
	}
	if p.ParamFile.Extension == "" {
		p.ParamFile.Extension = "txt"
	}
	if p.OutputFile.Name == "" {
		p.OutputFile.Name = "out"
	}
	if p.OutputFile.Extension == "" {
		p.OutputFile.Extension = "txt"
	}
	if p.OutputKey == "" {
		p.OutputKey = OutputKey
	}
	if p.Precision == nil {
		prec := params.DefaultPrecision
		p.Precision = &prec
	}

	scalingNames := sortedKeys(p.Scaling)
	if len(p.Scales) == 0 && len(scalingNames) > 0 {
		for s := range p.Scaling[scalingNames[0]] {
			p.Scales = append(p.Scales, s)
		}
		sort.Slice(p.Scales, func(i, j int) bool { return p.Scales[i] < p.Scales[j] })
	}
	if len(p.Scales) == 0 {
		return fmt.Errorf("no scale values given")
	}

	seen := make(map[uint64]bool, len(p.Scales))
	for _, s := range p.Scales {
		if seen[s] {
			return fmt.Errorf("scale value %d listed twice", s)
		}
		seen[s] = true
	}

	taken := map[string]string{p.OutputKey: "output key"}
	for _, v := range p.ScaleVariables {
		if err := claim(taken, v, "scale variable"); err != nil {
			return err
		}
	}
	for _, k := range sortedKeys(p.Static) {
		if err := claim(taken, k, "static parameter"); err != nil {
			return err
		}
	}
	for _, name := range scalingNames {
		if err := claim(taken, name, "scaling parameter"); err != nil {
			return err
		}
		values := p.Scaling[name]
		for _, s := range p.Scales {
			if _, ok := values[s]; !ok {
				return fmt.Errorf("scaling parameter %q has no value for scale %d", name, s)
			}
		}
		if len(values) != len(p.Scales) {
			return fmt.Errorf("scaling parameter %q does not contain the same scale values as the plan", name)
		}
	}
	return nil
}

func claim(taken map[string]string, key, what string) error {
	if key == "" || strings.ContainsAny(key, ":\n") {
		return fmt.Errorf("invalid %s name %q", what, key)
	}
	if prev, ok := taken[key]; ok {
		return fmt.Errorf("%s %q already used as %s", what, key, prev)
	}
	taken[key] = what
	return nil
}

// TargetDir is the directory holding the plan's files below baseDir.
func (p *Plan) TargetDir(baseDir string) string {
	return filepath.Join(baseDir, p.ResultsDir, p.Name)
}

func (p *Plan) suffix(scale uint64) string {
	parts := make([]string, len(p.ScaleVariables))
	for i, name := range p.ScaleVariables {
		parts[i] = name + "=" + strconv.FormatUint(scale, 10)
	}
	return strings.Join(parts, ",")
}

// Jobs lists the plan's jobs without touching the file system.
func (p *Plan) Jobs(baseDir string) []Job {
	dir := p.TargetDir(baseDir)
	jobs := make([]Job, len(p.Scales))
	for i, s := range p.Scales {
		suffix := p.suffix(s)
		jobs[i] = Job{
			Scale:      s,
			ParamFile:  filepath.Join(dir, fmt.Sprintf("%s_%s.%s", p.ParamFile.Name, suffix, p.ParamFile.Extension)),
			OutputFile: filepath.Join(dir, fmt.Sprintf("%s_%s.%s", p.OutputFile.Name, suffix, p.OutputFile.Extension)),
		}
	}
	return jobs
}

// Build creates the target directory and writes one parameter file per job.
func (p *Plan) Build(baseDir string) ([]Job, error) {
	if err := os.MkdirAll(p.TargetDir(baseDir), 0755); err != nil {
		return nil, err
	}
	jobs := p.Jobs(baseDir)
	for _, job := range jobs {
		data, err := p.Render(job)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(job.ParamFile, data, 0644); err != nil {
			return nil, params.IOError(job.ParamFile, err)
		}
	}
	return jobs, nil
}

// Render returns the parameter file body for job.
func (p *Plan) Render(job Job) ([]byte, error) {
	var buf bytes.Buffer
	prec := *p.Precision

	for _, name := range p.ScaleVariables {
		if err := params.WriteLine(&buf, name, job.Scale, prec); err != nil {
			return nil, err
		}
	}
	for _, k := range sortedKeys(p.Static) {
		if err := params.WriteLine(&buf, k, p.Static[k], prec); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(p.Scaling) {
		if err := params.WriteLine(&buf, name, p.Scaling[name][job.Scale], prec); err != nil {
			return nil, err
		}
	}
	if err := params.WriteLine(&buf, p.OutputKey, job.OutputFile, prec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Status checks which parameter and output files exist.
func (p *Plan) Status(baseDir string) []JobStatus {
	jobs := p.Jobs(baseDir)
	out := make([]JobStatus, len(jobs))
	for i, job := range jobs {
		out[i] = JobStatus{
			Job:       job,
			HasParams: fileExists(job.ParamFile),
			HasOutput: fileExists(job.OutputFile),
		}
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
