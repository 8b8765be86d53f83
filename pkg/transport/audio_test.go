package transport

import (
	"testing"
)

func TestResampleSameRate(t *testing.T) {
	in := []int16{1, 2, 3, 4, 5}
	out := Resample(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: expected %d, got %d", i, in[i], out[i])
		}
	}
}

func TestResampleDownsample(t *testing.T) {
	// 48kHz -> 16kHz should yield a third of the samples.
	in := make([]int16, 960)
	for i := range in {
		in[i] = int16(i)
	}
	out := Resample(in, 48000, 16000)
	if len(out) != 320 {
		t.Fatalf("expected 320 samples, got %d", len(out))
	}
}

func TestResampleUpsample(t *testing.T) {
	// 24kHz -> 48kHz doubles the sample count.
	in := make([]int16, 480)
	for i := range in {
		in[i] = int16(i * 10)
	}
	out := Resample(in, 24000, 48000)
	if len(out) != 960 {
		t.Fatalf("expected 960 samples, got %d", len(out))
	}
	// Interpolated values stay within the input range.
	for i, s := range out {
		if s < 0 || s > in[len(in)-1] {
			t.Fatalf("sample %d out of range: %d", i, s)
		}
	}
}

func TestResampleEmpty(t *testing.T) {
	if out := Resample(nil, 48000, 16000); len(out) != 0 {
		t.Errorf("expected empty output, got %d samples", len(out))
	}
}

func TestResamplePreservesDC(t *testing.T) {
	// A constant signal must survive conversion unchanged.
	in := make([]int16, 480)
	for i := range in {
		in[i] = 1000
	}
	out := Resample(in, 24000, 48000)
	for i, s := range out {
		if s != 1000 {
			t.Fatalf("sample %d: expected 1000, got %d", i, s)
		}
	}
}

func TestBytesToSamplesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	data := SamplesToBytes(samples)
	if len(data) != len(samples)*2 {
		t.Fatalf("expected %d bytes, got %d", len(samples)*2, len(data))
	}
	back := BytesToSamples(data)
	if len(back) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(back))
	}
	for i := range samples {
		if back[i] != samples[i] {
			t.Errorf("sample %d: expected %d, got %d", i, samples[i], back[i])
		}
	}
}

func TestResampleBytes(t *testing.T) {
	// 20ms at 24kHz is 480 samples; at 48kHz it is 960.
	in := SamplesToBytes(make([]int16, 480))
	out := ResampleBytes(in, 24000, 48000)
	if len(out) != 960*2 {
		t.Fatalf("expected %d bytes, got %d", 960*2, len(out))
	}
}

func TestStereoToMono(t *testing.T) {
	in := []int16{100, 200, -100, -200, 0, 50}
	out := StereoToMono(in)
	want := []int16{150, -150, 25}
	if len(out) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(out))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], out[i])
		}
	}
}
