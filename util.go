package main

import (
	"crypto/rand"
	"encoding/hex"
	"math"
)

const twoPi = 2 * math.Pi

// GenerateID returns n random bytes as a hex string, so 2n characters
func GenerateID(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Clamp restricts v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// NormalizeAngle wraps an angle into [-PI, PI)
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a - math.Pi
}

// LerpAngle interpolates from one heading to another along the short arc
func LerpAngle(from, to, t float64) float64 {
	return from + NormalizeAngle(to-from)*t
}

// round2 trims a float to 2 decimals for compact wire snapshots
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
