package go3mf

// Point3D is a 3D vertex coordinate, stored as a doubles per spec.md §3.1.
type Point3D [3]float64

// Point2D is a 2D coordinate, used by slice polygons.
type Point2D [2]float64

// Matrix is a 4x3 affine transform encoded as 12 row-major doubles:
// [m00 m01 m02 m10 m11 m12 m20 m21 m22 tx ty tz]. The implicit fourth row
// is [0 0 0 1].
type Matrix [12]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
		0, 0, 0,
	}
}

// Translation returns the affine transform with no rotation/scale and the
// given translation.
func Translation(x, y, z float64) Matrix {
	m := Identity()
	m[9], m[10], m[11] = x, y, z
	return m
}

// Mul multiplies m by n (applies m first, then n), treating both as 4x4
// matrices with an implicit [0 0 0 1] last column.
func (m Matrix) Mul(n Matrix) Matrix {
	a := m.rows()
	b := n.rows()
	var out [4][4]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return fromRows(out)
}

func (m Matrix) rows() [4][4]float64 {
	return [4][4]float64{
		{m[0], m[1], m[2], 0},
		{m[3], m[4], m[5], 0},
		{m[6], m[7], m[8], 0},
		{m[9], m[10], m[11], 1},
	}
}

func fromRows(r [4][4]float64) Matrix {
	return Matrix{
		r[0][0], r[0][1], r[0][2],
		r[1][0], r[1][1], r[1][2],
		r[2][0], r[2][1], r[2][2],
		r[3][0], r[3][1], r[3][2],
	}
}

// Det3 returns the determinant of the 3x3 rotation/scale block.
func (m Matrix) Det3() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Triangle defines a triangle of a mesh: three vertex indices plus the
// optional per-triangle property overrides spec.md §3.1/§4.5.1 describes.
type Triangle struct {
	Indices  [3]uint32
	HasPID   bool
	PID      uint32
	PIndices [3]uint32
	HasP     [3]bool

	// Displacement-extension fields (§4.3): DID selects the displacement
	// coordinate group; D holds the per-corner coordinate indices.
	HasDID bool
	DID    uint32
	D      [3]uint32
	HasD   [3]bool
}

// Mesh is an in-memory representation of a 3MF mesh object: a flat vertex
// list plus a triangle list that indexes into it.
type Mesh struct {
	Vertices  []Point3D
	Triangles []Triangle
	// Any holds extension data decorating this mesh (e.g. a
	// *beamlattice.BeamLattice); see the per-extension Get* helpers.
	Any []interface{}
}

// ExtAny searches Any for a value assignable to target, which must be a
// non-nil pointer.
func (msh *Mesh) ExtAny(target interface{}) bool { return findAttr(msh.Any, target) }

// MeshBuilder is a helper that builds a Mesh, optionally deduplicating
// vertices that share the same coordinates.
type MeshBuilder struct {
	// CalculateConnectivity, when true, makes AddVertex return the index
	// of an existing vertex with the same coordinates instead of adding a
	// duplicate. This carries a speed penalty proportional to mesh size.
	CalculateConnectivity bool
	Mesh                  *Mesh
	index                 vertexIndex
}

// NewMeshBuilder returns a new MeshBuilder writing into m.
func NewMeshBuilder(m *Mesh) *MeshBuilder {
	return &MeshBuilder{
		Mesh:                  m,
		CalculateConnectivity: true,
		index:                 newVertexIndex(),
	}
}

// AddVertex adds a vertex at the given position, returning its index. If
// CalculateConnectivity is set and a vertex at the same position already
// exists, its index is returned instead and no vertex is added.
func (mb *MeshBuilder) AddVertex(p Point3D) uint32 {
	if mb.CalculateConnectivity {
		if idx, ok := mb.index.find(p); ok {
			return idx
		}
	}
	mb.Mesh.Vertices = append(mb.Mesh.Vertices, p)
	idx := uint32(len(mb.Mesh.Vertices)) - 1
	if mb.CalculateConnectivity {
		mb.index.add(p, idx)
	}
	return idx
}
