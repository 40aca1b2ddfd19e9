package audio

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/oszuidwest/zwfm-varecorder/internal/util"
)

// FileSource replays a mono 16-bit WAV file as fixed-size blocks. Its clock
// advances with the samples read, so a replay behaves like a live capture of
// the same length. Read returns io.EOF once the file is exhausted.
type FileSource struct {
	f      *os.File
	dec    *wav.Decoder
	buf    *audio.IntBuffer
	rate   int
	start  time.Time
	played int64
}

// OpenFile opens path for replay in blocks of blockSize samples.
func OpenFile(path string, blockSize int) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, util.WrapError("open input file", err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() || dec.NumChans != Channels || dec.BitDepth != BitDepth {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	rate := int(dec.SampleRate)
	return &FileSource{
		f:   f,
		dec: dec,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: Channels, SampleRate: rate},
			Data:   make([]int, blockSize),
		},
		rate:  rate,
		start: time.Now(),
	}, nil
}

// SampleRate returns the rate of the replayed file in Hz.
func (s *FileSource) SampleRate() int {
	return s.rate
}

// Read returns the next block. A short final block is padded with silence.
func (s *FileSource) Read() ([]int16, error) {
	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil {
		return nil, util.WrapError("decode input file", err)
	}
	if n == 0 {
		return nil, io.EOF
	}

	block := make([]int16, len(s.buf.Data))
	for i := range n {
		block[i] = int16(s.buf.Data[i])
	}
	s.played += int64(len(block))
	return block, nil
}

// Now returns the start time plus the playing time of the blocks read so far.
func (s *FileSource) Now() time.Time {
	return s.start.Add(time.Duration(s.played) * time.Second / time.Duration(s.rate))
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.f.Close()
}
