package vocoder

import (
	"context"

	"github.com/nadzzz/glados/internal/audio"
	"github.com/nadzzz/glados/internal/onnx"
)

var (
	generatorInputs  = []string{"mel"}
	generatorOutputs = []string{"audio"}
)

// ONNXGenerator runs an exported HiFi-GAN generator graph.
type ONNXGenerator struct {
	session *onnx.Session
}

// LoadONNX opens the generator graph at path.
func LoadONNX(ec onnx.ExecutionContext, path string) (*ONNXGenerator, error) {
	s, err := ec.NewSession(path, generatorInputs, generatorOutputs)
	if err != nil {
		return nil, err
	}
	return &ONNXGenerator{session: s}, nil
}

// Generate implements Generator.
func (g *ONNXGenerator) Generate(_ context.Context, mel *audio.Mel) ([]float64, error) {
	in, err := onnx.FloatTensor(mel.Shape(), mel.Data)
	if err != nil {
		return nil, err
	}
	defer in.Destroy()

	out, err := g.session.Run(in)
	if err != nil {
		return nil, err
	}
	defer onnx.Destroy(out...)

	data, _, err := onnx.Floats(out[0])
	if err != nil {
		return nil, err
	}
	samples := make([]float64, len(data))
	for i, v := range data {
		samples[i] = float64(v)
	}
	return samples, nil
}

// Close releases the session.
func (g *ONNXGenerator) Close() error {
	return g.session.Destroy()
}
