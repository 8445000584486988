package log

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
)

func TestToFields(t *testing.T) {
	now := time.Now()
	err := errors.New("stream closed")

	tests := []struct {
		name     string
		input    []any
		wantKeys []string
	}{
		{"empty input", []any{}, nil},
		{"room and attempt", []any{"room", "r-1", "attempt", 3, "connected", true}, []string{"room", "attempt", "connected"}},
		{"time and duration", []any{"at", now, "delay", 2 * time.Second}, []string{"at", "delay"}},
		{"payload", []any{"payload", []byte(`{"event":"ADD"}`)}, []string{"payload"}},
		{"error only", []any{err}, []string{"error"}},
		{"named error", []any{"cause", err}, []string{"cause"}},
		{"mixed field types", []any{"vehicle", "101", zap.String("depot", "A"), "count", 42}, []string{"vehicle", "depot", "count"}},
		{"odd number of args", []any{"room", "r-1", "dangling"}, []string{"room", "extra"}},
		{"non-string key", []any{123, "value"}, []string{"123"}},
		{"nil values", []any{"route", nil, "ptr", (*int)(nil)}, []string{"route", "ptr"}},
		{"map value", []any{"counts", map[string]int{"service": 2}}, []string{"counts"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)

			if len(fields) != len(tt.wantKeys) {
				t.Fatalf("got %d fields, want %d: %+v", len(fields), len(tt.wantKeys), fields)
			}
			for i, f := range fields {
				if f.Key != tt.wantKeys[i] {
					t.Errorf("field %d key = %q, want %q", i, f.Key, tt.wantKeys[i])
				}
			}
		})
	}
}

func TestToFieldsTyped(t *testing.T) {
	fields := toFields("room", "r-1", "attempt", 2, "delay", time.Second, "payload", []byte("{}"))

	want := []zapcore.FieldType{zapcore.StringType, zapcore.Int64Type, zapcore.DurationType, zapcore.StringType}
	for i, typ := range want {
		if fields[i].Type != typ {
			t.Errorf("field %s type = %v, want %v", fields[i].Key, fields[i].Type, typ)
		}
	}
	if fields[3].String != "{}" {
		t.Errorf("payload = %q, want {}", fields[3].String)
	}
}

func TestPayloadIsCut(t *testing.T) {
	long := []byte(strings.Repeat("a", maxPayload-1) + "é" + "tail")
	got := payload(long)

	if !strings.HasSuffix(got, "...(261 bytes)") {
		t.Errorf("payload() = %q, want a size suffix", got)
	}
	if strings.Contains(got, "tail") || strings.Contains(got, "é") {
		t.Errorf("payload() kept bytes past the cut: %q", got)
	}
	if short := payload([]byte(`{"event":"HEARTBEAT"}`)); short != `{"event":"HEARTBEAT"}` {
		t.Errorf("payload() of a short message = %q", short)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr int
	}{
		{"defaults", func(o *Options) {}, 0},
		{"json format", func(o *Options) { o.Format = "json" }, 0},
		{"bad level", func(o *Options) { o.Level = "loud" }, 1},
		{"bad format", func(o *Options) { o.Format = "xml" }, 1},
		{"negative skip", func(o *Options) { o.CallerSkip = -1 }, 1},
		{"everything wrong", func(o *Options) { o.Level = "?"; o.Format = "?"; o.CallerSkip = -2 }, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.mutate(o)
			if got := len(o.Validate()); got != tt.wantErr {
				t.Errorf("Validate() returned %d errors, want %d", got, tt.wantErr)
			}
		})
	}
}

func TestInitRoutesKlog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.log")
	opts := NewOptions()
	opts.Format = "json"
	opts.OutputPaths = []string{path}

	Init(opts)
	klog.InfoS("Watching config", "room", "r-1")
	klog.Flush()
	if err := Sync(); err != nil {
		t.Logf("Sync() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"message":"Watching config"`, `"room":"r-1"`, `"logger":"klog"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log output %s does not contain %s", data, want)
		}
	}
}
