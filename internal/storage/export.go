package storage

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/san-kum/particlesim/internal/sim"
)

type ExportData struct {
	Run    RunMetadata `json:"run"`
	Stride int         `json:"stride"`
	Times  []float64   `json:"times"`
	Frames []Frame     `json:"frames"`
	Energy Series64    `json:"kinetic_energy"`
	Height Series64    `json:"mean_height"`
}

// Frame is one packed sample. NaN and Inf encode as null.
type Frame []float32

func (f Frame) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+len(f)*8)
	buf = append(buf, '[')
	for i, v := range f {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendFloat(buf, float64(v), 32)
	}
	return append(buf, ']'), nil
}

// Series64 is a scalar history. NaN and Inf encode as null.
type Series64 []float64

func (s Series64) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+len(s)*8)
	buf = append(buf, '[')
	for i, v := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendFloat(buf, v, 64)
	}
	return append(buf, ']'), nil
}

func appendFloat(buf []byte, v float64, bits int) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(buf, "null"...)
	}
	return strconv.AppendFloat(buf, v, 'g', -1, bits)
}

// Export gathers everything stored for a run into one document.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	times, frames, err := s.LoadFrames(runID)
	if err != nil {
		return nil, err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{
		Run:    *meta,
		Stride: sim.PackStride,
		Times:  times,
		Frames: make([]Frame, len(frames)),
		Energy: series.Energy,
		Height: series.Height,
	}
	for i, f := range frames {
		data.Frames[i] = f
	}
	return data, nil
}

func WriteJSON(w io.Writer, data *ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (s *Store) ExportJSON(runID, path string) error {
	data, err := s.Export(runID)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, data)
}

func (s *Store) ExportJSONStdout(runID string) error {
	data, err := s.Export(runID)
	if err != nil {
		return err
	}
	return WriteJSON(os.Stdout, data)
}
