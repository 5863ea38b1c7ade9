package transcode

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"gonum.org/v1/gonum/floats"
)

const resampleQuality = 4

// DecodeWAV decodes a WAV stream to mono PCM, resampling to targetRate when
// it is positive and differs from the file's rate.
func DecodeWAV(r io.Reader, targetRate int) (*AudioData, error) {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	defer streamer.Close()

	var source beep.Streamer = streamer
	rate := format.SampleRate
	if targetRate > 0 && beep.SampleRate(targetRate) != rate {
		source = beep.Resample(resampleQuality, rate, beep.SampleRate(targetRate), streamer)
		rate = beep.SampleRate(targetRate)
	}

	pcm, err := readMono(source)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("no audio samples decoded")
	}
	if gain := precisionGain(format.Precision); gain != 1 {
		floats.Scale(gain, pcm)
	}

	return &AudioData{
		PCM:        pcm,
		SampleRate: int(rate),
		Duration:   samplesToDuration(len(pcm), int(rate)),
		Codec:      "pcm",
		Timestamp:  time.Now(),
	}, nil
}

// DecodeWAVFile decodes a WAV file
func DecodeWAVFile(path string, targetRate int) (*AudioData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	audio, err := DecodeWAV(f, targetRate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	audio.Source = path
	return audio, nil
}

// precisionGain corrects beep's signed PCM decode, which divides by 2^bits-1
// while the encoder scales by 2^(bits-1)-1, leaving 16 and 24 bit input at
// half amplitude. 8 bit input is unsigned and decodes at full scale.
func precisionGain(precision int) float64 {
	if precision < 2 {
		return 1
	}
	bits := float64(precision * 8)
	return (math.Exp2(bits) - 1) / (math.Exp2(bits-1) - 1)
}

// readMono drains a streamer, averaging the two channels
func readMono(s beep.Streamer) ([]float64, error) {
	buf := make([][2]float64, 1024)
	var pcm []float64
	for {
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			pcm = append(pcm, (frame[0]+frame[1])/2)
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	return pcm, nil
}

// EncodeWAV writes a streamer as 16-bit mono WAV
func EncodeWAV(w io.WriteSeeker, s beep.Streamer, sampleRate int) error {
	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 1,
		Precision:   2,
	}
	if err := wav.Encode(w, s, format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}

// WriteWAVFile writes a streamer to a new WAV file at path
func WriteWAVFile(path string, s beep.Streamer, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, s, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
