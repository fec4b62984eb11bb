// Package dsp provides the discrete Fourier transform primitives shared by
// the training-sequence store and the subcarrier equaliser.
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
)

// FFT64 computes the forward DFT using iterative Cooley-Tukey radix-2.
// Input length must be a power of 2. Unnormalized, matching the convention
// of most Rust/C FFT libraries: callers divide by N themselves where the
// DFT convention requires it.
func FFT64(x []complex128) []complex128 {
	return transform(x, false)
}

// IFFT64 computes the "inverse-direction" DFT. Also unnormalized — it is
// the complex conjugate twiddle transform, not divided by N. This mirrors
// the convention used by the reference implementation this package is
// grounded on, where normalization is applied explicitly by callers
// (see internal/equalize), not baked into the transform.
func IFFT64(x []complex128) []complex128 {
	return transform(x, true)
}

// FFT32 and IFFT32 are the complex64 variants used for per-packet work.
// Internally they compute in 64-bit and cast down, since the cost of a
// single LTS-length (e.g. 64-point) transform in 64-bit is negligible and
// this keeps one transform implementation instead of two.
func FFT32(x []complex64) []complex64 {
	return castDown(transform(castUp(x), false))
}

func IFFT32(x []complex64) []complex64 {
	return castDown(transform(castUp(x), true))
}

func transform(x []complex128, inverse bool) []complex128 {
	n := len(x)
	if n <= 1 {
		out := make([]complex128, n)
		copy(out, x)
		return out
	}
	if n&(n-1) != 0 {
		panic(fmt.Sprintf("dsp: transform length %d is not a power of 2", n))
	}

	out := make([]complex128, n)
	copy(out, x)
	bitReverse(out)
	butterfly(out, inverse)
	return out
}

func butterfly(x []complex128, inverse bool) {
	n := len(x)
	sign := -1.0
	if inverse {
		sign = 1.0
	}
	for size := 2; size <= n; size <<= 1 {
		halfSize := size >> 1
		wn := cmplx.Exp(complex(0, sign*2*math.Pi/float64(size)))
		for start := 0; start < n; start += size {
			w := complex(1, 0)
			for j := 0; j < halfSize; j++ {
				u := x[start+j]
				v := w * x[start+j+halfSize]
				x[start+j] = u + v
				x[start+j+halfSize] = u - v
				w *= wn
			}
		}
	}
}

func bitReverse(x []complex128) {
	n := len(x)
	bits := 0
	for tmp := n; tmp > 1; tmp >>= 1 {
		bits++
	}
	for i := 0; i < n; i++ {
		j := reverseBits(i, bits)
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}
}

func reverseBits(x, bits int) int {
	result := 0
	for i := 0; i < bits; i++ {
		result = (result << 1) | (x & 1)
		x >>= 1
	}
	return result
}

func castUp(x []complex64) []complex128 {
	out := make([]complex128, len(x))
	for i, v := range x {
		out[i] = complex(float64(real(v)), float64(imag(v)))
	}
	return out
}

func castDown(x []complex128) []complex64 {
	out := make([]complex64, len(x))
	for i, v := range x {
		out[i] = complex(float32(real(v)), float32(imag(v)))
	}
	return out
}
