package audio_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/lexiread/lexiread/pkg/audio"
)

// samplesToBytes converts a slice of int16 samples to little-endian byte representation.
func samplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func TestWAVRoundTrip(t *testing.T) {
	pcm := make([]byte, 320) // 10 ms of 16 kHz mono PCM16
	for i := 0; i < len(pcm)/2; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(i*100)))
	}

	wav := audio.EncodeWAV(pcm, 16000, 1)
	if len(wav) != 44+len(pcm) {
		t.Fatalf("encoded size = %d, want %d", len(wav), 44+len(pcm))
	}

	got, sr, ch, err := audio.DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if sr != 16000 || ch != 1 {
		t.Errorf("decoded format = %d Hz / %d ch, want 16000 Hz / 1 ch", sr, ch)
	}
	if len(got) != len(pcm) {
		t.Fatalf("decoded %d bytes, want %d", len(got), len(pcm))
	}
	for i := range got {
		if got[i] != pcm[i] {
			t.Fatalf("decoded byte %d = %#x, want %#x", i, got[i], pcm[i])
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("RIFF")},
		{"wrong magic", make([]byte, 64)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, _, err := audio.DecodeWAV(tc.data); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestToFloat32(t *testing.T) {
	pcm := samplesToBytes([]int16{0, 16384, -16384, -32768})
	samples := audio.ToFloat32(pcm)
	want := []float32{0, 0.5, -0.5, -1.0}
	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(samples), len(want))
	}
	for i := range want {
		if math.Abs(float64(samples[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d = %f, want %f", i, samples[i], want[i])
		}
	}
}

func TestToFloat32MonoDownmix(t *testing.T) {
	// Two stereo frames: (1000, 3000) and (-2000, -4000).
	pcm := samplesToBytes([]int16{1000, 3000, -2000, -4000})
	mono := audio.ToFloat32Mono(pcm, 2)
	if len(mono) != 2 {
		t.Fatalf("got %d samples, want 2", len(mono))
	}
	want := []float32{2000.0 / 32768.0, -3000.0 / 32768.0}
	for i := range want {
		if math.Abs(float64(mono[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d = %f, want %f", i, mono[i], want[i])
		}
	}
}

func TestStereoToMono(t *testing.T) {
	stereo := samplesToBytes([]int16{100, 200, -100, -200})
	mono := audio.StereoToMono(stereo)
	want := samplesToBytes([]int16{150, -150})
	if len(mono) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(mono), len(want))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("byte %d: got %d, want %d", i, mono[i], want[i])
		}
	}
}

func TestStereoToMonoClamping(t *testing.T) {
	// Two max-positive samples should clamp to 32767 (not overflow).
	stereo := samplesToBytes([]int16{32767, 32767})
	mono := audio.StereoToMono(stereo)
	got := int16(binary.LittleEndian.Uint16(mono))
	if got != 32767 {
		t.Errorf("got %d, want 32767", got)
	}
}

func TestResampleMono16SameRate(t *testing.T) {
	pcm := samplesToBytes([]int16{100, 200, 300})
	out := audio.ResampleMono16(pcm, 16000, 16000)
	if len(out) != len(pcm) {
		t.Fatalf("length mismatch: got %d, want %d", len(out), len(pcm))
	}
}

func TestResampleMono16Downsample(t *testing.T) {
	// 48 kHz → 16 kHz should produce one third of the samples.
	pcm := make([]byte, 48*3*2*10) // 30 ms
	out := audio.ResampleMono16(pcm, 48000, 16000)
	if len(out) != len(pcm)/3 {
		t.Errorf("downsampled length = %d, want %d", len(out), len(pcm)/3)
	}
}

func TestRMS(t *testing.T) {
	if got := audio.RMS(nil); got != 0 {
		t.Errorf("RMS of empty input = %f, want 0", got)
	}
	// Constant-amplitude signal: RMS equals the amplitude.
	pcm := samplesToBytes([]int16{1000, -1000, 1000, -1000})
	if got := audio.RMS(pcm); math.Abs(got-1000) > 1e-6 {
		t.Errorf("RMS = %f, want 1000", got)
	}
}
