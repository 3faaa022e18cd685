// Package onnx owns the ONNX Runtime environment and the execution context
// that every neural network adapter is constructed with.
//
// The device is decided once at startup (ResolveDevice) and threaded into
// each session; no adapter inspects the hardware on its own.
package onnx

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ErrRuntime wraps failures to bring up ONNX Runtime or open a model.
var ErrRuntime = errors.New("onnx runtime")

// Device selects the execution provider.
type Device string

const (
	DeviceAuto Device = "auto"
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// ParseDevice accepts "auto", "cpu" or "cuda" (case-insensitive).
func ParseDevice(s string) (Device, error) {
	switch d := Device(strings.ToLower(strings.TrimSpace(s))); d {
	case "", DeviceAuto:
		return DeviceAuto, nil
	case DeviceCPU, DeviceCUDA:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown device %q", ErrRuntime, s)
	}
}

// ExecutionContext is the resolved device plus runtime tuning shared by all
// sessions in the process.
type ExecutionContext struct {
	Device         Device
	IntraOpThreads int
}

// defaultLibraryPaths are probed when no library path is configured.
var defaultLibraryPaths = []string{
	"/usr/local/lib/libonnxruntime.so",
	"/usr/local/lib/libonnxruntime.dylib",
	"/usr/lib/libonnxruntime.so",
}

var (
	initOnce sync.Once
	initErr  error
)

// Initialize loads the shared library and creates the global environment.
// Only the first call has any effect; later calls return its result.
func Initialize(libraryPath string) error {
	initOnce.Do(func() {
		path := resolveLibraryPath(libraryPath)
		ort.SetSharedLibraryPath(path)
		if err := ort.InitializeEnvironment(); err != nil {
			initErr = fmt.Errorf("%w: initializing environment from %s (set models.onnxruntime_lib or ONNXRUNTIME_LIB_PATH): %v", ErrRuntime, path, err)
			return
		}
		slog.Info("onnx runtime initialized", "library", path)
	})
	return initErr
}

// Shutdown destroys the global environment.
func Shutdown() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

func resolveLibraryPath(configured string) string {
	if configured != "" {
		return configured
	}
	if env := os.Getenv("ONNXRUNTIME_LIB_PATH"); env != "" {
		return env
	}
	for _, p := range defaultLibraryPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return defaultLibraryPaths[0]
}

// ResolveDevice turns DeviceAuto into a concrete device by probing the CUDA
// execution provider once. An explicit device is returned unchanged.
func ResolveDevice(requested Device) Device {
	if requested != DeviceAuto {
		return requested
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return DeviceCPU
	}
	defer opts.Destroy()

	cuda, err := ort.NewCUDAProviderOptions()
	if err != nil {
		slog.Info("cuda execution provider unavailable, using cpu", "error", err)
		return DeviceCPU
	}
	defer cuda.Destroy()

	if err := opts.AppendExecutionProviderCUDA(cuda); err != nil {
		slog.Info("cuda execution provider unavailable, using cpu", "error", err)
		return DeviceCPU
	}
	return DeviceCUDA
}

// Session is a named-input/named-output model session.
type Session struct {
	name    string
	inputs  []string
	outputs []string
	session *ort.DynamicAdvancedSession
}

// NewSession opens the model at path on the context's device.
func (ec ExecutionContext) NewSession(path string, inputs, outputs []string) (*Session, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: model %s: %v", ErrRuntime, path, err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: session options: %v", ErrRuntime, err)
	}
	defer opts.Destroy()

	if ec.IntraOpThreads > 0 {
		if err := opts.SetIntraOpNumThreads(ec.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("%w: intra-op threads: %v", ErrRuntime, err)
		}
	}
	if ec.Device == DeviceCUDA {
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return nil, fmt.Errorf("%w: cuda provider options: %v", ErrRuntime, err)
		}
		defer cuda.Destroy()
		if err := opts.AppendExecutionProviderCUDA(cuda); err != nil {
			return nil, fmt.Errorf("%w: cuda provider: %v", ErrRuntime, err)
		}
	}

	s, err := ort.NewDynamicAdvancedSession(path, inputs, outputs, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s: %v", ErrRuntime, path, err)
	}

	slog.Debug("onnx session loaded", "model", path, "device", ec.Device)
	return &Session{name: path, inputs: inputs, outputs: outputs, session: s}, nil
}

// Name returns the model path the session was opened from.
func (s *Session) Name() string { return s.name }

// Run executes the model. Inputs are matched to input names by position;
// outputs are allocated by the runtime and owned by the caller.
func (s *Session) Run(inputs ...ort.Value) ([]ort.Value, error) {
	if len(inputs) != len(s.inputs) {
		return nil, fmt.Errorf("%s: got %d inputs, want %d", s.name, len(inputs), len(s.inputs))
	}
	outputs := make([]ort.Value, len(s.outputs))
	if err := s.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("running %s: %w", s.name, err)
	}
	return outputs, nil
}

// Destroy releases the native session.
func (s *Session) Destroy() error {
	if s == nil || s.session == nil {
		return nil
	}
	return s.session.Destroy()
}

// FloatTensor wraps data in a float32 tensor.
func FloatTensor(shape []int64, data []float32) (*ort.Tensor[float32], error) {
	return ort.NewTensor(ort.NewShape(shape...), data)
}

// Int64Tensor wraps data in an int64 tensor.
func Int64Tensor(shape []int64, data []int64) (*ort.Tensor[int64], error) {
	return ort.NewTensor(ort.NewShape(shape...), data)
}

// Floats extracts data and shape from a float32 output value.
func Floats(v ort.Value) ([]float32, []int64, error) {
	t, ok := v.(*ort.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("output is %T, want float32 tensor", v)
	}
	data := make([]float32, len(t.GetData()))
	copy(data, t.GetData())
	return data, []int64(t.GetShape()), nil
}

// Destroy releases every non-nil value.
func Destroy(values ...ort.Value) {
	for _, v := range values {
		if v != nil {
			_ = v.Destroy()
		}
	}
}
