package renderer

import (
	"github.com/spaghettifunk/quadro/engine/math"
	"github.com/spaghettifunk/quadro/engine/renderer/metadata"
)

const (
	// quadAngularRate is the quad's spin rate in radians per second.
	quadAngularRate = math.Pi / 2.0

	fieldOfView = math.Pi / 4.0
	nearClip    = 0.1
	farClip     = 10.0
)

var (
	cameraEye    = math.NewVec3(2.0, 2.0, 2.0)
	cameraTarget = math.NewVec3Zero()
)

// Animate computes the uniform block for a frame. It is a pure function of
// the elapsed time and the current render extent: the model spins about the
// Z axis at a constant rate, the view and projection only change with the
// extent.
func Animate(elapsedSeconds float64, extent metadata.Extent) metadata.UniformObject {
	aspect := float32(1.0)
	if !extent.IsZero() {
		aspect = float32(extent.Width) / float32(extent.Height)
	}

	projection := math.NewMat4Perspective(fieldOfView, aspect, nearClip, farClip)
	// Vulkan clip space has Y pointing down.
	projection.Data[5] *= -1

	return metadata.UniformObject{
		Model:      math.NewMat4EulerZ(quadAngularRate * float32(elapsedSeconds)),
		View:       math.NewMat4LookAt(cameraEye, cameraTarget, math.NewVec3Up()),
		Projection: projection,
	}
}
