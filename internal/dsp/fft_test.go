package dsp

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestFFT64_KnownValues(t *testing.T) {
	// FFT of [1, 1, 1, 1] should be [4, 0, 0, 0]
	x := []complex128{1, 1, 1, 1}
	y := FFT64(x)

	if cmplx.Abs(y[0]-4) > 1e-10 {
		t.Errorf("FFT64([1,1,1,1])[0] = %v, want 4", y[0])
	}
	for i := 1; i < 4; i++ {
		if cmplx.Abs(y[i]) > 1e-10 {
			t.Errorf("FFT64([1,1,1,1])[%d] = %v, want 0", i, y[i])
		}
	}
}

func TestFFT64_IFFT64_RoundTrip(t *testing.T) {
	// Unnormalized convention: IFFT64(FFT64(x)) == N*x
	n := 64
	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(math.Sin(float64(i)), math.Cos(float64(i)))
	}

	y := FFT64(x)
	z := IFFT64(y)

	for i := range x {
		want := x[i] * complex(float64(n), 0)
		if cmplx.Abs(z[i]-want) > 1e-6 {
			t.Errorf("IFFT64(FFT64(x))[%d] = %v, want %v", i, z[i], want)
		}
	}
}

func TestFFT32_MatchesFFT64(t *testing.T) {
	n := 64
	x64 := make([]complex128, n)
	x32 := make([]complex64, n)
	for i := range x64 {
		v := complex(math.Sin(float64(i)*0.3), math.Cos(float64(i)*0.2))
		x64[i] = v
		x32[i] = complex64(v)
	}

	y64 := FFT64(x64)
	y32 := FFT32(x32)

	for i := range y64 {
		diff := cmplx.Abs(complex128(y32[i]) - y64[i])
		if diff > 1e-3 {
			t.Errorf("FFT32 vs FFT64 mismatch at %d: %v vs %v", i, y32[i], y64[i])
		}
	}
}

func TestButterfly_PanicsOnNonPowerOfTwo(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for non-power-of-2 length")
		}
	}()
	FFT64(make([]complex128, 5))
}
