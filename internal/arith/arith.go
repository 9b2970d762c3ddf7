// Package arith implements the small modular-arithmetic primitives consumed
// by the CRT packer and the Cuckoo hash family: integer logarithms, modular
// inverse, modular exponentiation, wide shifts and prime generation.
package arith

import "math/big"

const maxShift = 31

// Clog2 returns ceil(log2(x)), with Clog2(0) == 0.
func Clog2(x uint64) uint64 {
	result := Flog2(x)
	if x > (uint64(1) << result) {
		result++
	}
	return result
}

// Flog2 returns floor(log2(x)).
func Flog2(x uint64) uint64 {
	var result uint64
	for x >>= 1; x != 0; x >>= 1 {
		result++
	}
	return result
}

// Modinv returns the modular inverse of a mod m by brute force, O(m). This is
// only ever called on the small CRT moduli Mi, so the naive search is
// adequate. Returns 1 if no inverse exists.
func Modinv(a, m uint64) uint64 {
	a = a % m
	for x := uint64(1); x < m; x++ {
		if (a*x)%m == 1 {
			return x
		}
	}
	return 1
}

// Powm computes b^e mod m by square-and-multiply.
func Powm(b, e, m uint64) uint64 {
	result := uint64(1)
	b %= m
	for e > 0 {
		if e&1 == 1 {
			result = (result * b) % m
		}
		e >>= 1
		b = (b * b) % m
	}
	return result
}

// ShiftLeft shifts x left by s bits, safe for s > 63.
func ShiftLeft(x, s uint64) uint64 {
	for s > maxShift {
		x <<= maxShift
		s -= maxShift
	}
	return x << s
}

// ShiftRight shifts x right by s bits, safe for s > 63.
func ShiftRight(x, s uint64) uint64 {
	for s > maxShift {
		x >>= maxShift
		s -= maxShift
	}
	return x >> s
}

// Gcd returns the greatest common divisor of a and b.
func Gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// AreCoprime reports whether every pair in v is pairwise coprime.
func AreCoprime(v []uint64) bool {
	for i := range v {
		for j := i + 1; j < len(v); j++ {
			if Gcd(v[i], v[j]) != 1 {
				return false
			}
		}
	}
	return true
}

// GeneratePrime returns the smallest prime strictly greater than min,
// mirroring GMP's mpz_nextprime (the original calls that directly); big.Int's
// Miller-Rabin-backed ProbablyPrime stands in for GMP's own test here.
func GeneratePrime(min uint64) uint64 {
	if min < 2 {
		return 2
	}
	candidate := new(big.Int).SetUint64(min + 1)
	if candidate.Bit(0) == 0 {
		candidate.Add(candidate, big.NewInt(1))
	}
	for !candidate.ProbablyPrime(20) {
		candidate.Add(candidate, big.NewInt(2))
	}
	return candidate.Uint64()
}

// MillerRabinTest runs a single base-a round of the Miller-Rabin primality
// test on odd n-1 = d*2^r, kept for parity with the source's exposed
// primitive even though GeneratePrime delegates to big.Int internally.
func MillerRabinTest(n, d uint64, a uint64) bool {
	x := Powm(a, d, n)
	if x == 1 || x == n-1 {
		return true
	}
	for d != n-1 {
		x = (x * x) % n
		d <<= 1
		if x == 1 {
			return false
		}
		if x == n-1 {
			return true
		}
	}
	return false
}
