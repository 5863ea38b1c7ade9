package transcode

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

func sine(freq float64, sampleRate, n int) []float64 {
	pcm := make([]float64, n)
	for i := range pcm {
		pcm[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return pcm
}

// pcmStreamer plays mono PCM on both channels
func pcmStreamer(pcm []float64) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(pcm) {
			return 0, false
		}
		n := 0
		for n < len(samples) && pos < len(pcm) {
			samples[n][0] = pcm[pos]
			samples[n][1] = pcm[pos]
			n++
			pos++
		}
		return n, true
	})
}

func TestBytesToFloat64(t *testing.T) {
	want := []float64{0, 0.25, -1, 1}
	data := make([]byte, 0, len(want)*8+3)
	for _, v := range want {
		data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
	}
	data = append(data, 1, 2, 3) // partial sample is dropped

	got := bytesToFloat64(data)
	if !slices.Equal(got, want) {
		t.Errorf("bytesToFloat64 = %v, want %v", got, want)
	}
	if bytesToFloat64([]byte{1, 2}) != nil {
		t.Error("short input should decode to nil")
	}
}

func TestParseFFprobeOutput(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
		rate    int
	}{
		{
			name: "mp3",
			json: `{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"48000","channels":2,"duration":"3.5","bit_rate":"128000"}]}`,
			rate: 48000,
		},
		{
			name: "missing rate falls back",
			json: `{"streams":[{"codec_type":"audio","codec_name":"flac","channels":1}]}`,
			rate: 44100,
		},
		{name: "no streams", json: `{"streams":[]}`, wantErr: true},
		{name: "video", json: `{"streams":[{"codec_type":"video","channels":1}]}`, wantErr: true},
		{name: "bad channels", json: `{"streams":[{"codec_type":"audio","channels":0}]}`, wantErr: true},
		{name: "garbage", json: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := parseFFprobeOutput([]byte(tt.json))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && meta.SampleRate != tt.rate {
				t.Errorf("sample rate = %d, want %d", meta.SampleRate, tt.rate)
			}
		})
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.HighpassHz = 30
	cfg.MaxDuration = 2 * time.Second
	d := NewDecoder(cfg)

	args := d.buildFFmpegArgs(&AudioMetadata{SampleRate: 48000, Channels: 2})
	for _, want := range []string{"f64le", "44100", "highpass=f=30.0", "2.00"} {
		found := false
		for _, a := range args {
			if a == want || (len(a) > len(want) && a[len(a)-len(want):] == want) {
				found = true
			}
		}
		if !found {
			t.Errorf("args %v missing %q", args, want)
		}
	}

	same := NewDecoder(DefaultDecoderConfig()).buildFFmpegArgs(&AudioMetadata{SampleRate: 44100})
	if slices.Contains(same, "-af") {
		t.Errorf("no filter expected at the target rate: %v", same)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := NewDecoder(nil).ValidateConfig(); err != nil {
		t.Errorf("default config: %v", err)
	}
	cfg := DefaultDecoderConfig()
	cfg.TargetSampleRate = 0
	if err := NewDecoder(cfg).ValidateConfig(); err == nil {
		t.Error("zero sample rate should fail")
	}
}

func TestWAVRoundTrip(t *testing.T) {
	const rate = 44100
	pcm := sine(440, rate, rate/2)
	path := filepath.Join(t.TempDir(), "a4.wav")

	if err := WriteWAVFile(path, pcmStreamer(pcm), rate); err != nil {
		t.Fatal(err)
	}

	audio, err := DecodeWAVFile(path, rate)
	if err != nil {
		t.Fatal(err)
	}
	if audio.SampleRate != rate || len(audio.PCM) != len(pcm) {
		t.Fatalf("decoded %d samples at %d Hz, want %d at %d", len(audio.PCM), audio.SampleRate, len(pcm), rate)
	}
	for i := range pcm {
		if math.Abs(audio.PCM[i]-pcm[i]) > 1e-3 {
			t.Fatalf("sample %d = %v, want %v", i, audio.PCM[i], pcm[i])
		}
	}
	if audio.Duration != 500*time.Millisecond {
		t.Errorf("duration = %v", audio.Duration)
	}
}

func TestWAVDecodeKeepsFullScale(t *testing.T) {
	const rate = 8000
	pcm := sine(440, rate, rate/10)

	tests := []struct {
		name      string
		precision int
		channels  int
		tolerance float64
	}{
		{"8 bit mono", 1, 1, 0.01},
		{"16 bit mono", 2, 1, 1e-3},
		{"16 bit stereo", 2, 2, 1e-3},
		{"24 bit mono", 3, 1, 1e-3},
		{"24 bit stereo", 3, 2, 1e-3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tone.wav")
			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}
			format := beep.Format{SampleRate: rate, NumChannels: tt.channels, Precision: tt.precision}
			if err := wav.Encode(f, pcmStreamer(pcm), format); err != nil {
				t.Fatal(err)
			}
			f.Close()

			audio, err := DecodeWAVFile(path, rate)
			if err != nil {
				t.Fatal(err)
			}
			if len(audio.PCM) != len(pcm) {
				t.Fatalf("decoded %d samples, want %d", len(audio.PCM), len(pcm))
			}
			for i := range pcm {
				if math.Abs(audio.PCM[i]-pcm[i]) > tt.tolerance {
					t.Fatalf("sample %d = %v, want %v", i, audio.PCM[i], pcm[i])
				}
			}
		})
	}
}

func TestPrecisionGain(t *testing.T) {
	if g := precisionGain(1); g != 1 {
		t.Errorf("8 bit gain = %v, want 1", g)
	}
	if g := precisionGain(2); math.Abs(g-65535.0/32767.0) > 1e-12 {
		t.Errorf("16 bit gain = %v", g)
	}
	if g := precisionGain(3); math.Abs(g-16777215.0/8388607.0) > 1e-12 {
		t.Errorf("24 bit gain = %v", g)
	}
}

func TestWAVResample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "low.wav")
	if err := WriteWAVFile(path, pcmStreamer(sine(220, 22050, 22050)), 22050); err != nil {
		t.Fatal(err)
	}

	audio, err := DecodeWAVFile(path, 44100)
	if err != nil {
		t.Fatal(err)
	}
	if audio.SampleRate != 44100 {
		t.Errorf("sample rate = %d", audio.SampleRate)
	}
	if n := len(audio.PCM); n < 44000 || n > 44200 {
		t.Errorf("resampled length = %d, want about 44100", n)
	}
}

func TestDecodeFileNativeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := WriteWAVFile(path, pcmStreamer(sine(110, 44100, 44100)), 44100); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultDecoderConfig()
	cfg.MaxDuration = 250 * time.Millisecond
	audio, err := NewDecoder(cfg).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if len(audio.PCM) != 11025 || audio.Source != path {
		t.Errorf("decoded %d samples from %q", len(audio.PCM), audio.Source)
	}
}
