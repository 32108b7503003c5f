package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/ember/config"
	"github.com/pthm-cable/ember/settings"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}

	// Every method is a no-op on a nil manager.
	if err := om.WritePerf(PerfStats{}, 1); err != nil {
		t.Error(err)
	}
	if err := om.WriteSettings(SettingsRecord{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManager_WritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for frame := uint64(1); frame <= 3; frame++ {
		if err := om.WritePerf(PerfStats{AvgTickDuration: time.Millisecond}, frame*60); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("perf.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "frame,avg_tick_us") {
		t.Errorf("header = %q", lines[0])
	}

	var rows []PerfStatsCSV
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		t.Fatal(err)
	}
	if rows[2].Frame != 180 || rows[2].AvgTickUS != 1000 {
		t.Errorf("last row = %+v", rows[2])
	}
}

func TestOutputManager_SettingsAndConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	s := settings.Defaults()
	s.Speed = 0.5
	rec := NewSettingsRecord(10, 2*time.Second, s, []string{settings.FieldSpeed, settings.FieldHeight})
	if err := om.WriteSettings(rec); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "settings.csv"))
	if err != nil {
		t.Fatal(err)
	}
	var rows []SettingsRecord
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Changed != "speed;height" || rows[0].Speed != 0.5 || rows[0].ElapsedSec != 2 {
		t.Errorf("rows = %+v", rows)
	}
}
