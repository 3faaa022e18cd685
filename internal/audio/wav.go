package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth16  = 16
	monoChannel = 1
	formatPCM   = 1
)

// WriteWAV writes p as a 16-bit mono PCM WAV file, creating parent
// directories and overwriting any existing file at path.
func WriteWAV(path string, p *PCM) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating wav: %w", err)
	}
	if err := encode(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeWAV returns p wrapped in a WAV container.
func EncodeWAV(p *PCM) ([]byte, error) {
	ws := &seekBuffer{}
	if err := encode(ws, p); err != nil {
		return nil, err
	}
	return ws.buf, nil
}

// ReadWAV decodes a 16-bit mono WAV file.
func ReadWAV(path string) (*PCM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wav: %w", err)
	}
	return DecodeWAV(data)
}

// DecodeWAV decodes 16-bit mono WAV bytes.
func DecodeWAV(data []byte) (*PCM, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("decoding wav: invalid file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding wav: %w", err)
	}
	if dec.BitDepth != bitDepth16 {
		return nil, fmt.Errorf("decoding wav: unsupported bit depth %d", dec.BitDepth)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return &PCM{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

func encode(w io.WriteSeeker, p *PCM) error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("encoding wav: invalid sample rate %d", p.SampleRate)
	}

	data := make([]int, len(p.Samples))
	for i, s := range p.Samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(w, p.SampleRate, bitDepth16, monoChannel, formatPCM)
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{SampleRate: p.SampleRate, NumChannels: monoChannel},
		SourceBitDepth: bitDepth16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}

// seekBuffer is an in-memory io.WriteSeeker; the WAV encoder seeks back to
// patch chunk sizes on Close.
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if end := s.pos + len(p); end > len(s.buf) {
		s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
	}
	n := copy(s.buf[s.pos:], p)
	s.pos += n
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(s.pos) + offset
	case io.SeekEnd:
		abs = int64(len(s.buf)) + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("seek: negative position")
	}
	s.pos = int(abs)
	return abs, nil
}
