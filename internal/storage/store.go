package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunRecord struct {
	ID         string            `json:"id"`
	Variant    string            `json:"variant"`
	Timestamp  time.Time         `json:"timestamp"`
	ParamFile  string            `json:"param_file"`
	OutputFile string            `json:"output_file"`
	Params     map[string]string `json:"params"`
	Labels     []string          `json:"labels"`
	Values     []float64         `json:"values"`
}

var ErrInvalidID = errors.New("invalid run id")

func checkID(runID string) error {
	if runID == "" || runID == "." || strings.ContainsAny(runID, `/\`) || strings.Contains(runID, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidID, runID)
	}
	return nil
}

// NewID returns a fresh run id for variant.
func NewID(variant string) string {
	return fmt.Sprintf("%s_%s", variant, uuid.NewString()[:8])
}

// Save writes rec to <base>/<id>/metadata.json and results.csv. A missing
// ID or timestamp is filled in. Nothing is left on disk when Save fails.
func (s *Store) Save(rec *RunRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = NewID(rec.Variant)
	}
	if err := checkID(rec.ID); err != nil {
		return "", err
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if len(rec.Labels) != len(rec.Values) {
		return "", fmt.Errorf("run %s: %d labels for %d values", rec.ID, len(rec.Labels), len(rec.Values))
	}

	meta, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("run %s: %w", rec.ID, err)
	}

	runDir := filepath.Join(s.baseDir, rec.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeRun(runDir, meta, rec); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return rec.ID, nil
}

func writeRun(runDir string, meta []byte, rec *RunRecord) error {
	if err := os.WriteFile(filepath.Join(runDir, "metadata.json"), append(meta, '\n'), 0644); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "results.csv"))
	if err != nil {
		return err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(rec.Labels); err != nil {
		return err
	}
	row := make([]string, len(rec.Values))
	for i, v := range rec.Values {
		row[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return csvFile.Close()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunRecord, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunRecord{}, nil
		}
		return nil, err
	}

	runs := make([]RunRecord, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rec, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *rec)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunRecord, error) {
	if err := checkID(runID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// LoadResults reads the labels and values back from results.csv.
func (s *Store) LoadResults(runID string) ([]string, []float64, error) {
	if err := checkID(runID); err != nil {
		return nil, nil, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, runID, "results.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []string{}, []float64{}, nil
	}

	values := make([]float64, 0, len(records[1]))
	for _, field := range records[1] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("run %s: %w", runID, err)
		}
		values = append(values, v)
	}
	return records[0], values, nil
}

// Export writes the run record as indented JSON.
func (s *Store) Export(w io.Writer, runID string) error {
	rec, err := s.Load(runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
