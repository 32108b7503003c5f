package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/ember/config"
	"github.com/pthm-cable/ember/settings"
)

// SettingsRecord is one applied settings change in settings.csv.
type SettingsRecord struct {
	Frame          uint64  `csv:"frame"`
	ElapsedSec     float64 `csv:"elapsed_sec"`
	Changed        string  `csv:"changed"`
	PrimaryColor   string  `csv:"primary_color"`
	SecondaryColor string  `csv:"secondary_color"`
	Intensity      float64 `csv:"intensity"`
	Speed          float64 `csv:"speed"`
	Scale          float64 `csv:"scale"`
	Turbulence     float64 `csv:"turbulence"`
	Height         float64 `csv:"height"`
	Opacity        float64 `csv:"opacity"`
}

// NewSettingsRecord flattens s for CSV output.
func NewSettingsRecord(frame uint64, elapsed time.Duration, s settings.Settings, changed []string) SettingsRecord {
	return SettingsRecord{
		Frame:          frame,
		ElapsedSec:     elapsed.Seconds(),
		Changed:        strings.Join(changed, ";"),
		PrimaryColor:   s.PrimaryColor,
		SecondaryColor: s.SecondaryColor,
		Intensity:      s.Intensity,
		Speed:          s.Speed,
		Scale:          s.Scale,
		Turbulence:     s.Turbulence,
		Height:         s.Height,
		Opacity:        s.Opacity,
	}
}

// OutputManager writes run output as CSV files in one directory.
type OutputManager struct {
	dir          string
	perfFile     *os.File
	settingsFile *os.File

	// Track if headers have been written
	perfHeaderWritten     bool
	settingsHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	f, err = os.Create(filepath.Join(dir, "settings.csv"))
	if err != nil {
		om.perfFile.Close()
		return nil, fmt.Errorf("creating settings.csv: %w", err)
	}
	om.settingsFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, frame uint64) error {
	if om == nil {
		return nil
	}
	records := []PerfStatsCSV{stats.ToCSV(frame)}
	if err := writeRecords(om.perfFile, records, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteSettings appends a settings change to settings.csv.
func (om *OutputManager) WriteSettings(rec SettingsRecord) error {
	if om == nil {
		return nil
	}
	records := []SettingsRecord{rec}
	if err := writeRecords(om.settingsFile, records, &om.settingsHeaderWritten); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// writeRecords includes the header row only on the first write to f.
func writeRecords(f *os.File, records any, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.perfFile, om.settingsFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
