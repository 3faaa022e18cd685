package onnx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDevice(t *testing.T) {
	tests := []struct {
		in      string
		want    Device
		wantErr bool
	}{
		{"", DeviceAuto, false},
		{"auto", DeviceAuto, false},
		{"CPU", DeviceCPU, false},
		{" cuda ", DeviceCUDA, false},
		{"tpu", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDevice(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrRuntime, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestResolveDeviceExplicit(t *testing.T) {
	assert.Equal(t, DeviceCPU, ResolveDevice(DeviceCPU))
	assert.Equal(t, DeviceCUDA, ResolveDevice(DeviceCUDA))
}

func TestResolveLibraryPath(t *testing.T) {
	assert.Equal(t, "/opt/ort.so", resolveLibraryPath("/opt/ort.so"))

	t.Setenv("ONNXRUNTIME_LIB_PATH", "/env/ort.so")
	assert.Equal(t, "/env/ort.so", resolveLibraryPath(""))
}

func TestNewSessionMissingModel(t *testing.T) {
	ec := ExecutionContext{Device: DeviceCPU}
	_, err := ec.NewSession(filepath.Join(t.TempDir(), "missing.onnx"), []string{"x"}, []string{"y"})
	assert.ErrorIs(t, err, ErrRuntime)
}
