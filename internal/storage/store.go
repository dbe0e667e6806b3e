package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	seriesFile   = "series.csv"
)

var ErrMalformedFrames = errors.New("storage: malformed frames file")

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Preset      string             `json:"preset"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Particles   int                `json:"particles"`
	Gravity     float32            `json:"gravity"`
	Interaction bool               `json:"interaction"`
	Restitution float32            `json:"restitution"`
	Width       float32            `json:"width"`
	Height      float32            `json:"height"`
	Depth       float32            `json:"depth"`
	Dt          float32            `json:"dt"`
	Frames      int                `json:"frames"`
	SampleEvery int                `json:"sample_every"`
	Bounces     int                `json:"bounces"`
	Metrics     map[string]float64 `json:"metrics"`
	Diverged    []string           `json:"diverged,omitempty"`
}

// NewMetadata fills the simulation and run fields of a metadata record.
func NewMetadata(preset string, cfg sim.Config, rc experiment.RunConfig) RunMetadata {
	return RunMetadata{
		Preset:      preset,
		Seed:        cfg.Seed,
		Particles:   cfg.ParticleCount,
		Gravity:     cfg.Gravity,
		Interaction: cfg.EnableInteraction,
		Restitution: cfg.Restitution,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Depth:       cfg.Depth,
		Dt:          rc.Dt,
		Frames:      rc.Frames,
		SampleEvery: rc.SampleEvery,
	}
}

// Series is the per-sample scalar history of a run.
type Series struct {
	Times  []float64
	Energy []float64
	Height []float64
}

// Save writes metadata, sampled frames and the scalar series into a new run
// directory and returns its id. Metrics that came out NaN or Inf are left out
// of the metadata and listed under Diverged. A failed save leaves no
// directory behind.
func (s *Store) Save(meta RunMetadata, result *experiment.Result) (string, error) {
	if len(result.Times) != len(result.Frames) {
		return "", fmt.Errorf("result has %d sample times for %d frames", len(result.Times), len(result.Frames))
	}

	name := meta.Preset
	if name == "" {
		name = "run"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	meta.ID = runID
	meta.Timestamp = now
	meta.Bounces = result.Bounces
	meta.Metrics, meta.Diverged = splitFinite(result.Metrics)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeRun(runDir, meta, result); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}

	return runID, nil
}

func writeRun(runDir string, meta RunMetadata, result *experiment.Result) error {
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), result); err != nil {
		return fmt.Errorf("write frames: %w", err)
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), result); err != nil {
		return fmt.Errorf("write series: %w", err)
	}
	return nil
}

// splitFinite separates metrics JSON can hold from the names of those it
// cannot.
func splitFinite(in map[string]float64) (map[string]float64, []string) {
	out := make(map[string]float64, len(in))
	var diverged []string
	for name, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			diverged = append(diverged, name)
			continue
		}
		out[name] = v
	}
	sort.Strings(diverged)
	return out, diverged
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func formatFloat64(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// frames.csv is long format: one row per particle per sample.
func writeFrames(path string, result *experiment.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"sample", "time", "particle", "px", "py", "pz", "vx", "vy", "vz"}); err != nil {
		return err
	}

	for i, frame := range result.Frames {
		sample := strconv.Itoa(i)
		t := formatFloat64(result.Times[i])
		for p := 0; p+sim.PackStride <= len(frame); p += sim.PackStride {
			row := []string{sample, t, strconv.Itoa(p / sim.PackStride)}
			for _, v := range frame[p : p+sim.PackStride] {
				row = append(row, formatFloat32(v))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func writeSeries(path string, result *experiment.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "kinetic_energy", "mean_height"}); err != nil {
		return err
	}
	for i, t := range result.Times {
		row := []string{formatFloat64(t), formatFloat64(at(result.Energy, i)), formatFloat64(at(result.Height, i))}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func at(xs []float64, i int) float64 {
	if i < len(xs) {
		return xs[i]
	}
	return 0
}

// List returns every readable run, oldest first.
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
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", runID, err)
	}

	return &meta, nil
}

// Latest returns the id of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs in %s", s.baseDir)
	}
	return runs[len(runs)-1].ID, nil
}

type sampleRows struct {
	time float64
	data []float32
}

// LoadFrames reads the sampled frames back in Pack layout. A sample of an
// empty population has no rows in frames.csv, so when series.csv is present
// it decides how many samples there are and such samples load as empty
// frames.
func (s *Store) LoadFrames(runID string) ([]float64, [][]float32, error) {
	bySample, err := s.readFrames(runID)
	if err != nil {
		return nil, nil, err
	}

	var seriesTimes []float64
	series, err := s.LoadSeries(runID)
	switch {
	case err == nil:
		seriesTimes = series.Times
	case !errors.Is(err, os.ErrNotExist):
		return nil, nil, err
	}

	n := len(seriesTimes)
	for sample := range bySample {
		if series != nil && sample >= n {
			return nil, nil, fmt.Errorf("sample %d missing from %s: %w", sample, seriesFile, ErrMalformedFrames)
		}
		n = max(n, sample+1)
	}

	times := make([]float64, n)
	frames := make([][]float32, n)
	for i := range frames {
		rows, ok := bySample[i]
		switch {
		case ok:
			times[i] = rows.time
			frames[i] = rows.data
		case i < len(seriesTimes):
			times[i] = seriesTimes[i]
			frames[i] = make([]float32, 0)
		default:
			return nil, nil, fmt.Errorf("sample %d has no rows: %w", i, ErrMalformedFrames)
		}
	}

	return times, frames, nil
}

func (s *Store) readFrames(runID string) (map[int]*sampleRows, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	bySample := make(map[int]*sampleRows)
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) != 3+sim.PackStride {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrMalformedFrames)
		}

		sample, err := strconv.Atoi(record[0])
		if err != nil || sample < 0 {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrMalformedFrames)
		}
		rows, ok := bySample[sample]
		if !ok {
			t, err := strconv.ParseFloat(record[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, ErrMalformedFrames)
			}
			rows = &sampleRows{time: t, data: make([]float32, 0)}
			bySample[sample] = rows
		}

		for _, field := range record[3:] {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, ErrMalformedFrames)
			}
			rows.data = append(rows.data, float32(v))
		}
	}

	return bySample, nil
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	series := &Series{}
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 3 {
			continue
		}

		vals := make([]float64, 3)
		ok := true
		for j := range vals {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}

		series.Times = append(series.Times, vals[0])
		series.Energy = append(series.Energy, vals[1])
		series.Height = append(series.Height, vals[2])
	}

	return series, nil
}

// CopyFrames streams a run's frames.csv to w unchanged.
func (s *Store) CopyFrames(runID string, w io.Writer) error {
	f, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
