package epa

import (
	"github.com/go-gl/mathgl/mgl64"
)

type Face struct {
	Points   [3]mgl64.Vec3 // Les 3 sommets du triangle
	Normal   mgl64.Vec3    // Normale pointant vers l'extérieur
	Distance float64       // Distance de l'origine au plan de la face
}

type Edge struct {
	A, B mgl64.Vec3
}

func compareVec3(a, b mgl64.Vec3) int {
	// Compare vectors lexicographically (x, then y, then z)
	if a[0] != b[0] {
		if a[0] < b[0] {
			return -1
		}
		return 1
	}
	if a[1] != b[1] {
		if a[1] < b[1] {
			return -1
		}
		return 1
	}
	if a[2] != b[2] {
		if a[2] < b[2] {
			return -1
		}
		return 1
	}
	return 0
}
