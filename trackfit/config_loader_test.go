package trackfit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func validConfigYAML() string {
	return `field: 1.4
seedCollection: SvtxTrackSeedContainer
cosmics: true
vertexRadius: 75
cosmicFitLayers:
  start: 7
  end: 55
workers: 4
mqtt:
  broker: tcp://localhost:1883
  clientId: seedtrack-test
  eventTopic: detector/events
  publishPrefix: seedtrack
http:
  port: 8080
`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	return path
}

// ---------------------------------------------------------------------------
// LoadConfig
// ---------------------------------------------------------------------------

func TestLoadConfig_NotExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfigYAML()))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("Broker = %q, want %q", cfg.MQTT.Broker, "tcp://localhost:1883")
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.HTTPPort() != 8080 {
		t.Errorf("HTTPPort() = %d, want 8080", cfg.HTTPPort())
	}
	if err := cfg.ValidateService(); err != nil {
		t.Errorf("ValidateService: %v", err)
	}

	bc, err := cfg.BuilderConfig()
	if err != nil {
		t.Fatalf("BuilderConfig: %v", err)
	}
	if bc.Mode() != ModeMatchedCosmic {
		t.Errorf("Mode() = %v, want %v", bc.Mode(), ModeMatchedCosmic)
	}
	if bc.VertexRadius != 75 {
		t.Errorf("VertexRadius = %v, want 75", bc.VertexRadius)
	}
	if bc.ChargeGapThreshold != DefaultChargeGapThreshold {
		t.Errorf("ChargeGapThreshold = %v, want default %v", bc.ChargeGapThreshold, DefaultChargeGapThreshold)
	}
	if bc.CosmicFitLayers != (LayerWindow{Start: 7, End: 55}) {
		t.Errorf("CosmicFitLayers = %+v, want [7, 55)", bc.CosmicFitLayers)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "seedCollection: TpcTrackSeedContainer\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Field.IsConstant() || cfg.Field.Magnitude != 1.4 {
		t.Errorf("Field = %v, want constant 1.4", cfg.Field)
	}
	if cfg.HTTPPort() != DefaultHTTPPort {
		t.Errorf("HTTPPort() = %d, want %d", cfg.HTTPPort(), DefaultHTTPPort)
	}
	r := cfg.RenderOptions()
	if r.Padding != DefaultRenderPadding || r.Scale != DefaultRenderScale {
		t.Errorf("RenderOptions() = %+v, want defaults", r)
	}

	bc, err := cfg.BuilderConfig()
	if err != nil {
		t.Fatalf("BuilderConfig: %v", err)
	}
	if bc != DefaultBuilderConfig() {
		t.Errorf("BuilderConfig() = %+v, want %+v", bc, DefaultBuilderConfig())
	}
	if err := cfg.ValidateService(); err == nil {
		t.Error("expected ValidateService to require an MQTT broker")
	}
}

func TestLoadConfig_FieldMap(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "field: sphenix3dtrackingmapxyz.root\nseedCollection: SiliconTrackSeedContainer\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Field.IsConstant() {
		t.Errorf("Field = %v, want a field map", cfg.Field)
	}
	if cfg.Field.Map != "sphenix3dtrackingmapxyz.root" {
		t.Errorf("Field.Map = %q", cfg.Field.Map)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing collection", "field: 1.4\n", "seedCollection is required"},
		{"unknown collection", "seedCollection: ClusterContainer\n", "unknown seed collection"},
		{"empty window", "seedCollection: SvtxTrackSeedContainer\ncosmicFitLayers: {start: 10, end: 10}\n", "cosmicFitLayers"},
		{"negative workers", "seedCollection: TpcTrackSeedContainer\nworkers: -1\n", "workers"},
		{"bad field", "seedCollection: TpcTrackSeedContainer\nfield: NaN\n", "invalid field"},
		{"field map node", "seedCollection: TpcTrackSeedContainer\nfield: {tesla: 1}\n", "invalid field"},
		{"not YAML", "seedCollection: [\n", "parsing config YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// SaveConfig
// ---------------------------------------------------------------------------

func TestSaveConfig_RoundTrip(t *testing.T) {
	orig, err := LoadConfig(writeConfig(t, validConfigYAML()))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := SaveConfig(path, orig); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	back, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig(saved): %v", err)
	}

	if back.Field != orig.Field {
		t.Errorf("Field = %v, want %v", back.Field, orig.Field)
	}
	if back.SeedCollection != orig.SeedCollection || back.Cosmics != orig.Cosmics {
		t.Errorf("collection settings changed: %+v", back)
	}
	if back.CosmicFitLayers == nil || *back.CosmicFitLayers != *orig.CosmicFitLayers {
		t.Errorf("CosmicFitLayers = %v, want %v", back.CosmicFitLayers, orig.CosmicFitLayers)
	}
	if back.MQTT != orig.MQTT {
		t.Errorf("MQTT = %+v, want %+v", back.MQTT, orig.MQTT)
	}
}
