package acoustic

import (
	"context"
	"fmt"
	"path/filepath"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/nadzzz/glados/internal/audio"
	"github.com/nadzzz/glados/internal/onnx"
)

// Graph file names inside the acoustic model directory.
const (
	EncoderFile = "encoder.onnx"
	DecoderFile = "decoder_iter.onnx"
	PostnetFile = "postnet.onnx"
)

// Dims are the layer widths the graphs were exported with.
type Dims struct {
	NumMels         int
	AttentionRNNDim int
	DecoderRNNDim   int
	EncoderDim      int
}

// DefaultDims matches the stock Tacotron2 hyperparameters.
var DefaultDims = Dims{
	NumMels:         80,
	AttentionRNNDim: 1024,
	DecoderRNNDim:   1024,
	EncoderDim:      512,
}

var (
	encoderInputs  = []string{"sequences", "sequence_lengths"}
	encoderOutputs = []string{"memory", "processed_memory", "lens"}

	decoderInputs = []string{
		"decoder_input", "attention_hidden", "attention_cell",
		"decoder_hidden", "decoder_cell", "attention_weights",
		"attention_weights_cum", "attention_context",
		"memory", "processed_memory",
	}
	decoderOutputs = []string{
		"decoder_output", "gate_prediction", "out_attention_hidden",
		"out_attention_cell", "out_decoder_hidden", "out_decoder_cell",
		"out_attention_weights", "out_attention_weights_cum",
		"out_attention_context",
	}

	postnetInputs  = []string{"mel_outputs"}
	postnetOutputs = []string{"mel_outputs_postnet"}
)

// ONNXNetwork evaluates exported encoder, decoder-step and postnet graphs.
type ONNXNetwork struct {
	dims    Dims
	encoder *onnx.Session
	decoder *onnx.Session
	postnet *onnx.Session
}

// LoadONNX opens the three graphs in dir on the given execution context.
func LoadONNX(ec onnx.ExecutionContext, dir string, dims Dims) (*ONNXNetwork, error) {
	n := &ONNXNetwork{dims: dims}
	var err error
	if n.encoder, err = ec.NewSession(filepath.Join(dir, EncoderFile), encoderInputs, encoderOutputs); err != nil {
		return nil, err
	}
	if n.decoder, err = ec.NewSession(filepath.Join(dir, DecoderFile), decoderInputs, decoderOutputs); err != nil {
		n.Close()
		return nil, err
	}
	if n.postnet, err = ec.NewSession(filepath.Join(dir, PostnetFile), postnetInputs, postnetOutputs); err != nil {
		n.Close()
		return nil, err
	}
	return n, nil
}

// Close releases all three sessions.
func (n *ONNXNetwork) Close() error {
	for _, s := range []*onnx.Session{n.encoder, n.decoder, n.postnet} {
		_ = s.Destroy()
	}
	return nil
}

// NumMels implements Network.
func (n *ONNXNetwork) NumMels() int { return n.dims.NumMels }

// onnxState carries the recurrent tensors between decoder steps. Encoder
// memory stays resident as native tensors; the small recurrent vectors are
// copied in and out on every step.
type onnxState struct {
	memory          ort.Value
	processedMemory ort.Value
	textLen         int

	attentionHidden     []float32
	attentionCell       []float32
	decoderHidden       []float32
	decoderCell         []float32
	attentionWeights    []float32
	attentionWeightsCum []float32
	attentionContext    []float32
}

func (s *onnxState) Close() error {
	onnx.Destroy(s.memory, s.processedMemory)
	return nil
}

// Encode implements Network.
func (n *ONNXNetwork) Encode(_ context.Context, symbols []int64) (State, error) {
	seq, err := onnx.Int64Tensor([]int64{1, int64(len(symbols))}, symbols)
	if err != nil {
		return nil, err
	}
	defer seq.Destroy()
	lens, err := onnx.Int64Tensor([]int64{1}, []int64{int64(len(symbols))})
	if err != nil {
		return nil, err
	}
	defer lens.Destroy()

	out, err := n.encoder.Run(seq, lens)
	if err != nil {
		return nil, err
	}
	onnx.Destroy(out[2])

	t := len(symbols)
	return &onnxState{
		memory:              out[0],
		processedMemory:     out[1],
		textLen:             t,
		attentionHidden:     make([]float32, n.dims.AttentionRNNDim),
		attentionCell:       make([]float32, n.dims.AttentionRNNDim),
		decoderHidden:       make([]float32, n.dims.DecoderRNNDim),
		decoderCell:         make([]float32, n.dims.DecoderRNNDim),
		attentionWeights:    make([]float32, t),
		attentionWeightsCum: make([]float32, t),
		attentionContext:    make([]float32, n.dims.EncoderDim),
	}, nil
}

// Step implements Network.
func (n *ONNXNetwork) Step(_ context.Context, st State, prev []float32) ([]float32, float32, error) {
	s, ok := st.(*onnxState)
	if !ok {
		return nil, 0, fmt.Errorf("acoustic: foreign decoder state %T", st)
	}

	vectors := [][]float32{
		prev,
		s.attentionHidden, s.attentionCell,
		s.decoderHidden, s.decoderCell,
		s.attentionWeights, s.attentionWeightsCum,
		s.attentionContext,
	}
	inputs := make([]ort.Value, 0, len(decoderInputs))
	defer func() { onnx.Destroy(inputs...) }()
	for _, v := range vectors {
		t, err := onnx.FloatTensor([]int64{1, int64(len(v))}, v)
		if err != nil {
			return nil, 0, err
		}
		inputs = append(inputs, t)
	}

	out, err := n.decoder.Run(append(inputs, s.memory, s.processedMemory)...)
	if err != nil {
		return nil, 0, err
	}
	defer onnx.Destroy(out...)

	values := make([][]float32, len(out))
	for i, v := range out {
		if values[i], _, err = onnx.Floats(v); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", decoderOutputs[i], err)
		}
	}
	if len(values[1]) == 0 {
		return nil, 0, fmt.Errorf("%s: empty", decoderOutputs[1])
	}

	s.attentionHidden = values[2]
	s.attentionCell = values[3]
	s.decoderHidden = values[4]
	s.decoderCell = values[5]
	s.attentionWeights = values[6]
	s.attentionWeightsCum = values[7]
	s.attentionContext = values[8]
	return values[0], values[1][0], nil
}

// Postnet implements Network.
func (n *ONNXNetwork) Postnet(_ context.Context, mel *audio.Mel) (*audio.Mel, error) {
	in, err := onnx.FloatTensor(mel.Shape(), mel.Data)
	if err != nil {
		return nil, err
	}
	defer in.Destroy()

	out, err := n.postnet.Run(in)
	if err != nil {
		return nil, err
	}
	defer onnx.Destroy(out...)

	data, shape, err := onnx.Floats(out[0])
	if err != nil {
		return nil, err
	}
	if len(shape) != 3 || int(shape[1]) != mel.Bins || int(shape[2]) != mel.Frames {
		return nil, fmt.Errorf("postnet output shape %v, want [1 %d %d]", shape, mel.Bins, mel.Frames)
	}

	refined := *mel
	refined.Data = data
	return &refined, nil
}
