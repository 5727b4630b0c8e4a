package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"
	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/export"
	"github.com/san-kum/pidsim/internal/logs"
	"github.com/san-kum/pidsim/internal/lti"
)

const (
	metadataFile = "metadata.json"
	responseFile = "response.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

// Store keeps one directory per run under baseDir:
//
//	<baseDir>/<run-id>/metadata.json
//	<baseDir>/<run-id>/response.csv
type Store struct {
	baseDir string
	log     logging.LeveledLogger
}

func New(baseDir string, f logging.LoggerFactory) *Store {
	return &Store{
		baseDir: baseDir,
		log:     logs.OrDefault(f).NewLogger(logs.ScopeStorage),
	}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Input      string             `json:"input"`
	Method     string             `json:"method"`
	Integrator string             `json:"integrator,omitempty"`
	Plant      string             `json:"plant"`
	Boundary   string             `json:"boundary"`
	Duration   float64            `json:"duration"`
	Samples    int                `json:"samples"`
	Gains      experiment.Gains   `json:"gains"`
	Caption    string             `json:"caption"`
	Transfer   string             `json:"transfer"`
	Poles      []experiment.Pole  `json:"poles"`
	Stable     bool               `json:"stable"`
	Metrics    map[string]float64 `json:"metrics"`
}

// NewRunID returns "<input>_<8 hex digits>".
func NewRunID(input string) string {
	return fmt.Sprintf("%s_%s", input, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *Store) Save(cfg experiment.Config, res *experiment.Result) (string, error) {
	runID := NewRunID(res.Input)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		Input:     res.Input,
		Method:    res.Method,
		Boundary:  cfg.Boundary.String(),
		Duration:  cfg.Duration,
		Samples:   cfg.Samples,
		Gains:     res.Gains,
		Caption:   res.Caption,
		Transfer:  res.Transfer,
		Poles:     res.Poles,
		Stable:    res.Stable,
		Metrics:   res.Metrics,
	}
	if cfg.Method == experiment.MethodSampled {
		meta.Integrator = cfg.Integrator
	}
	if cfg.Plant != nil {
		meta.Plant = cfg.Plant.String()
	} else {
		meta.Plant = lti.DefaultPlant().String()
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, responseFile))
	if err != nil {
		return "", err
	}
	if err := export.WriteCSV(csvFile, res.Times, res.Reference, res.Output, res.Control); err != nil {
		csvFile.Close()
		return "", err
	}
	if err := csvFile.Close(); err != nil {
		return "", err
	}

	s.log.Infof("saved run %s (%d samples) to %s", runID, len(res.Times), runDir)
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns every readable run, newest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			s.log.Debugf("skipping %s: %v", entry.Name(), err)
			continue
		}

		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s metadata: %w", runID, err)
	}

	return &meta, nil
}

// LoadResponse rebuilds the full result of a stored run.
func (s *Store) LoadResponse(runID string) (*experiment.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, responseFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tr, err := export.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &experiment.Result{
		Input:     meta.Input,
		Method:    meta.Method,
		Gains:     meta.Gains,
		Caption:   meta.Caption,
		Transfer:  meta.Transfer,
		Poles:     meta.Poles,
		Stable:    meta.Stable,
		Times:     tr.Times,
		Reference: tr.Reference,
		Output:    tr.Output,
		Control:   tr.Control,
		Metrics:   meta.Metrics,
	}, nil
}

// Delete removes a stored run.
func (s *Store) Delete(runID string) error {
	if _, err := s.Load(runID); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(s.baseDir, runID))
}
