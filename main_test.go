package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd.PersistentFlags())
		resetFlags(convertCmd.Flags())
	})
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores defaults so flags set by one test do not leak into
// the next.
func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "seedtrack version: "+Version) {
		t.Errorf("output = %q", out)
	}
}

func TestConvertCommand(t *testing.T) {
	cfg := writeFixture(t, "config.yaml", []byte(tpcConfig))
	ev := writeFixture(t, "event.json", eventJSON(t, 30, 150))
	outPath := filepath.Join(t.TempDir(), "tracks.json")

	if _, err := execute(t, "convert", "--config", cfg, "--event", ev, "--out", outPath); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if convertOpts.Output != outPath {
		t.Errorf("Output flag = %q, want %q", convertOpts.Output, outPath)
	}
}

func TestConvertCommand_Stdout(t *testing.T) {
	cfg := writeFixture(t, "config.yaml", []byte(tpcConfig))
	ev := writeFixture(t, "event.json", eventJSON(t, 31, 150, 200))

	out, err := execute(t, "convert", "-c", cfg, "-e", ev)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	var rec struct {
		Event  int64             `json:"event"`
		Tracks []json.RawMessage `json:"tracks"`
	}
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("stdout is not an event record: %v\n%s", err, out)
	}
	if rec.Event != 31 || len(rec.Tracks) != 2 {
		t.Errorf("event = %d, tracks = %d", rec.Event, len(rec.Tracks))
	}
}

func TestConvertCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
		want string
	}{
		{
			name: "missing event flag",
			args: func(t *testing.T) []string { return []string{"convert"} },
			want: `required flag(s) "event" not set`,
		},
		{
			name: "missing config",
			args: func(t *testing.T) []string {
				return []string{"convert", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "--event", "x.json"}
			},
			want: "config file not found",
		},
		{
			name: "unexpected argument",
			args: func(t *testing.T) []string { return []string{"version", "extra"} },
			want: "unknown command",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args(t)...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger(false)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug enabled without --verbose")
	}

	l, err = newLogger(true)
	if err != nil {
		t.Fatalf("newLogger(verbose): %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug disabled with --verbose")
	}
}
