// Package ring lays out color tokens on a circle and reorders them as the user
// drags tokens out of and back into the ring.
package ring

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NoEmptySlot disables the reserved slot in Arrange.
const NoEmptySlot = -1

// SlotAngle is the angle of slot i when the ring is split into total sectors.
func SlotAngle(i, total int) float64 {
	return 2 * math.Pi * float64(i) / float64(total)
}

// Layout returns ring-space positions for count tokens in order. When
// emptySlot is a valid index the ring gets count+1 sectors and that one stays
// vacant.
func Layout(count, emptySlot int, radius float64) []mgl64.Vec3 {
	total := count
	if emptySlot >= 0 {
		total++
	}
	positions := make([]mgl64.Vec3, 0, count)
	for i := 0; i < total && len(positions) < count; i++ {
		if i == emptySlot {
			continue
		}
		theta := SlotAngle(i, total)
		positions = append(positions, mgl64.Vec3{radius * math.Cos(theta), radius * math.Sin(theta), 0})
	}
	return positions
}

// tieEpsilon absorbs rounding in SlotAngle so an angle exactly between two
// slots resolves to the lower one.
const tieEpsilon = 1e-9

// ComputeInsertionIndex returns the slot nearest to angle once the ring holds
// sphereCount+1 tokens. Distance is the plain absolute difference in radians
// and ties go to the lower index.
func ComputeInsertionIndex(angle float64, sphereCount int) int {
	if sphereCount <= 0 {
		return 0
	}
	total := sphereCount + 1
	best := 0
	bestDiff := math.Inf(1)
	for i := 0; i < total; i++ {
		diff := math.Abs(angle - SlotAngle(i, total))
		if diff < bestDiff-tieEpsilon {
			best, bestDiff = i, diff
		}
	}
	return best
}
