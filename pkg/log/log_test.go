package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"WARNING", slog.LevelWarn, false},
		{"Error", slog.LevelError, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModuleGating(t *testing.T) {
	prev := Root()
	t.Cleanup(func() {
		SetDefault(prev)
		DisableModule(ClassFile)
		EnableModule(Javap)
	})

	var buf bytes.Buffer
	require.NoError(t, InitLogger(&buf, "debug"))

	DisableModule(Javap)
	Debug(Javap, "hidden")
	assert.Empty(t, buf.String())

	Warn(Javap, "shown regardless", "class", "Foo")
	assert.Contains(t, buf.String(), "shown regardless")
	assert.Contains(t, buf.String(), "module=javap")
	assert.Contains(t, buf.String(), "class=Foo")

	buf.Reset()
	EnableModules(" javap ,classfile")
	Debug(Javap, "now visible")
	Debug(ClassFile, "decoder detail")
	assert.Contains(t, buf.String(), "now visible")
	assert.Contains(t, buf.String(), "decoder detail")
}

func TestLevelFilter(t *testing.T) {
	prev := Root()
	t.Cleanup(func() { SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, InitLogger(&buf, "warn"))
	Info(CLI, "quiet")
	Debug(CLI, "quieter")
	assert.Empty(t, buf.String())
	Warn(CLI, "loud")
	assert.Contains(t, buf.String(), "level=WARN")

	assert.Error(t, InitLogger(&buf, "nope"))
}
