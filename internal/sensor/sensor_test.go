package sensor

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/weather-node/internal/infrastructure/config"
)

var fixedTime = time.Date(2026, 10, 18, 9, 15, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func writeChannel(t *testing.T, dir, name, value string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(value), 0600); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
}

func TestIIO_Read(t *testing.T) {
	dir := t.TempDir()
	writeChannel(t, dir, tempChannel, "21470\n")
	writeChannel(t, dir, pressureChannel, "101.325000000\n")

	r, err := NewIIO(dir, fixedClock).Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if r.Timestamp != "2026-10-18T09:15:00Z" {
		t.Errorf("Timestamp = %q", r.Timestamp)
	}
	if math.Abs(r.Temperature-21.47) > 1e-9 {
		t.Errorf("Temperature = %v, want 21.47", r.Temperature)
	}
	if math.Abs(r.Pressure-1013.25) > 1e-9 {
		t.Errorf("Pressure = %v, want 1013.25 hPa", r.Pressure)
	}
}

func TestIIO_ReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{name: "missing channels"},
		{name: "missing pressure", files: map[string]string{tempChannel: "21000"}},
		{name: "garbage temperature", files: map[string]string{tempChannel: "n/a", pressureChannel: "101.3"}},
		{name: "empty pressure", files: map[string]string{tempChannel: "21000", pressureChannel: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, value := range tt.files {
				writeChannel(t, dir, name, value)
			}

			_, err := NewIIO(dir, fixedClock).Read()
			if !errors.Is(err, ErrRead) {
				t.Errorf("Read() error = %v, want ErrRead", err)
			}
		})
	}
}

func TestSimulated_StaysNearBase(t *testing.T) {
	cfg := config.SimulatedSensorConfig{
		BaseTemperature: 21.0,
		BasePressure:    1013.25,
		MaxStep:         0.05,
		Seed:            42,
	}
	s := NewSimulated(cfg, fixedClock)

	prev, err := s.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	for i := 0; i < 10000; i++ {
		r, err := s.Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if math.Abs(r.Temperature-prev.Temperature) > cfg.MaxStep+1e-9 {
			t.Fatalf("temperature step %v exceeds max step", r.Temperature-prev.Temperature)
		}
		if math.Abs(r.Temperature-cfg.BaseTemperature) > cfg.MaxStep*100+1e-9 {
			t.Fatalf("temperature %v drifted out of bounds", r.Temperature)
		}
		if math.Abs(r.Pressure-cfg.BasePressure) > cfg.MaxStep*pressureStepScale*100+1e-9 {
			t.Fatalf("pressure %v drifted out of bounds", r.Pressure)
		}
		prev = r
	}
}

func TestSimulated_Deterministic(t *testing.T) {
	cfg := config.SimulatedSensorConfig{BaseTemperature: 10, BasePressure: 1000, MaxStep: 0.5, Seed: 7}
	a := NewSimulated(cfg, fixedClock)
	b := NewSimulated(cfg, fixedClock)

	for i := 0; i < 20; i++ {
		ra, _ := a.Read()
		rb, _ := b.Read()
		if ra != rb {
			t.Fatalf("step %d: %+v != %+v", i, ra, rb)
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		driver  string
		wantErr bool
	}{
		{driver: "iio"},
		{driver: "simulated"},
		{driver: "bme680", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			_, err := New(config.SensorConfig{Driver: tt.driver, IIOPath: t.TempDir()}, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.driver, err, tt.wantErr)
			}
		})
	}
}
