package math

// Vec3 represents a 3D vector. It doubles as a point (Point3) and as a
// triple of angles (Tuple3) depending on the call site.
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/** @brief A quaternion, used to represent rotational orientation. */
type Quaternion Vec4

/**
 * @brief a 4x4 matrix, typically used to represent object transformations.
 * Matrices use the row-vector convention: a point p is transformed as p*M,
 * so the translation lives in Data[12], Data[13] and Data[14]. The same 16
 * floats are what a fixed-function pipeline expects as a column-major array.
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

/**
 * @brief Represents an axis-aligned bounding box in model space.
 * An empty box has Min at +infinity and Max at -infinity so that it is the
 * identity of Union.
 */
type Box3 struct {
	/** @brief The minimum corner of the box. */
	Min Vec3
	/** @brief The maximum corner of the box. */
	Max Vec3
}

/**
 * @brief The decomposed parts of an affine transformation.
 * Composition applies scale, then shear, then rotation about X, Y and Z
 * (in that order), then translation.
 */
type TransformComponents struct {
	/** @brief Per-axis scale factors. */
	Scale Vec3
	/** @brief Shear of Y along X. */
	ShearXY float32
	/** @brief Shear of Z along X. */
	ShearXZ float32
	/** @brief Shear of Z along Y. */
	ShearYZ float32
	/** @brief Euler rotation in radians. */
	Rotate Vec3
	/** @brief Translation. */
	Translate Vec3
}

// Viewport is a window rectangle in pixels: x, y, width, height.
type Viewport [4]float32
