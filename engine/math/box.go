package math

/**
 * @brief Returns an empty box, the identity element of Union.
 */
func NewBox3Empty() Box3 {
	return Box3{
		Min: Vec3{K_INFINITY, K_INFINITY, K_INFINITY},
		Max: Vec3{-K_INFINITY, -K_INFINITY, -K_INFINITY}}
}

/**
 * @brief Returns the tight box around the given points, or an empty box if
 * there are none.
 */
func NewBox3FromPoints(points ...Vec3) Box3 {
	b := NewBox3Empty()
	for _, p := range points {
		b = b.ExpandByPoint(p)
	}
	return b
}

/**
 * @brief Returns true if the box contains no geometry.
 */
func (b Box3) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

/**
 * @brief Returns the smallest box containing b and p.
 */
func (b Box3) ExpandByPoint(p Vec3) Box3 {
	return Box3{
		Min: Vec3{min(b.Min.X, p.X), min(b.Min.Y, p.Y), min(b.Min.Z, p.Z)},
		Max: Vec3{max(b.Max.X, p.X), max(b.Max.Y, p.Y), max(b.Max.Z, p.Z)}}
}

/**
 * @brief Returns the smallest box containing both boxes. An empty operand
 * leaves the other unchanged.
 */
func (b Box3) Union(other Box3) Box3 {
	if b.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return b
	}
	return b.ExpandByPoint(other.Min).ExpandByPoint(other.Max)
}

/**
 * @brief Returns the eight corners of the box.
 */
func (b Box3) Corners() [8]Vec3 {
	return [8]Vec3{
		{b.Min.X, b.Min.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Max.Y, b.Max.Z}}
}

/**
 * @brief Returns the axis-aligned box around the transformed corners of b.
 */
func (b Box3) Transform(m Mat4) Box3 {
	if b.IsEmpty() {
		return b
	}
	out := NewBox3Empty()
	for _, c := range b.Corners() {
		out = out.ExpandByPoint(c.Transform(m))
	}
	return out
}

/**
 * @brief Returns true if p lies inside or on the boundary of b.
 */
func (b Box3) ContainsPoint(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

/**
 * @brief Returns true if other lies entirely inside b. Every box contains
 * the empty box.
 */
func (b Box3) ContainsBox(other Box3) bool {
	if other.IsEmpty() {
		return true
	}
	return b.ContainsPoint(other.Min) && b.ContainsPoint(other.Max)
}

/**
 * @brief Returns the center of the box.
 */
func (b Box3) Center() Vec3 {
	return b.Min.Add(b.Max).MulScalar(0.5)
}

/**
 * @brief Returns the vector from Min to Max.
 */
func (b Box3) Size() Vec3 {
	return b.Max.Sub(b.Min)
}
