package editor

import (
	"github.com/chewxy/math32"
	"github.com/spaghettifunk/bricklayer/engine/ldraw"
	"github.com/spaghettifunk/bricklayer/engine/math"
)

/**
 * @brief The viewpoint of an editor view. The camera orbits a target:
 * the model is moved so the target sits at the origin, then turned by
 * the view rotation. Projection is orthographic.
 */
type Camera struct {
	/**
	 * @brief The point the view is centred on.
	 * NOTE: Do not set this directly, use SetTarget() instead so the view
	 * matrix is recalculated when needed.
	 */
	Target math.Vec3
	/**
	 * @brief The view rotation in degrees (x, y, z), as used by the view
	 * orientation presets.
	 */
	Rotation math.Vec3
	/** @brief Half the height of the visible area, in LDraw units. */
	Zoom float32
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of this camera.
	 * NOTE: Do not get this directly, use GetView() instead.
	 */
	ViewMatrix math.Mat4
}

const (
	defaultZoom = float32(100)
	// Extra room left around a framed box.
	frameMargin = float32(1.05)
	// Pitch is kept short of straight up or down.
	pitchLimit = float32(89)
)

// ldrawToView turns LDraw space, where -Y is up, into view space, where +Y
// is up and the camera looks down -Z.
var ldrawToView = math.NewMat4Scale(math.Vec3{X: 1, Y: -1, Z: -1})

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

// Reset puts the camera back to the 3D preset around the origin.
func (c *Camera) Reset() {
	c.Target = math.NewVec3Zero()
	c.Rotation = ldraw.AngleForViewOrientation(ldraw.ViewOrientation3D)
	c.Zoom = defaultZoom
	c.IsDirty = true
}

func (c *Camera) SetTarget(target math.Vec3) {
	c.Target = target
	c.IsDirty = true
}

// SetViewOrientation turns the camera to one of the presets.
func (c *Camera) SetViewOrientation(orientation ldraw.ViewOrientation) {
	c.Rotation = ldraw.AngleForViewOrientation(orientation)
	c.IsDirty = true
}

// ViewOrientation names the preset the camera is turned to, or 3D.
func (c *Camera) ViewOrientation() ldraw.ViewOrientation {
	return ldraw.ViewOrientationForAngle(c.Rotation)
}

// Orbit turns the view by pitch and yaw degrees.
func (c *Camera) Orbit(pitch, yaw float32) {
	c.Rotation.X = math.Clamp(c.Rotation.X+pitch, -pitchLimit, pitchLimit)
	c.Rotation.Y += yaw
	c.IsDirty = true
}

func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		translation := math.NewMat4Translation(c.Target.MulScalar(-1))
		rotation := math.NewMat4EulerXYZ(
			math.DegToRad(c.Rotation.X),
			math.DegToRad(c.Rotation.Y),
			math.DegToRad(c.Rotation.Z))

		c.ViewMatrix = translation.Mul(rotation).Mul(ldrawToView)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

// GetProjection returns the orthographic projection for a viewport. The
// depth range covers anything within four zooms of the target.
func (c *Camera) GetProjection(viewport math.Viewport) math.Mat4 {
	aspect := float32(1)
	if viewport[3] > 0 {
		aspect = viewport[2] / viewport[3]
	}
	depth := c.Zoom * 4
	return math.NewMat4Orthographic(-c.Zoom*aspect, c.Zoom*aspect, -c.Zoom, c.Zoom, -depth, depth)
}

// Frame centres the camera on box and zooms so the box fits whatever the
// rotation. An empty box resets the target and zoom.
func (c *Camera) Frame(box math.Box3) {
	if box.IsEmpty() {
		c.Target = math.NewVec3Zero()
		c.Zoom = defaultZoom
		c.IsDirty = true
		return
	}
	c.Target = box.Center()
	c.Zoom = max(box.Size().Length()/2*frameMargin, 1)
	c.IsDirty = true
}

// NudgeVector turns an arrow-key direction on screen (+X right, +Y up, +Z
// towards the viewer) into the unit model axis that moves closest to it.
// A zero direction stays zero.
func (c *Camera) NudgeVector(screen math.Vec3) math.Vec3 {
	rotation := c.GetView().RotationOnly()
	if screen.LengthSquared() == 0 || rotation.Determinant3() == 0 {
		return math.Vec3{}
	}
	model := screen.TransformVector(rotation.Inverse())

	x, y, z := math32.Abs(model.X), math32.Abs(model.Y), math32.Abs(model.Z)
	switch {
	case x >= y && x >= z:
		return math.Vec3{X: math32.Copysign(1, model.X)}
	case y >= z:
		return math.Vec3{Y: math32.Copysign(1, model.Y)}
	default:
		return math.Vec3{Z: math32.Copysign(1, model.Z)}
	}
}
