// Package mesh implements the geometric operations shared by the validator
// and by downstream consumers (spec.md §4.6 / component C7): signed volume,
// axis-aligned bounding boxes, affine transforms and vertex/face normals.
package mesh

import (
	"math"

	go3mf "github.com/3mf-go/go3mf"
)

// SignedVolume returns the signed volume of m, computed as the sum of
// signed tetrahedra from the origin divided by six. Triangles with
// out-of-bounds vertex indices are silently skipped (the validator rejects
// those separately; this function must stay total). An empty mesh has
// volume 0. Positive volume indicates outward ("solid") winding.
func SignedVolume(m *go3mf.Mesh) float64 {
	var sum float64
	n := len(m.Vertices)
	for _, t := range m.Triangles {
		i0, i1, i2 := t.Indices[0], t.Indices[1], t.Indices[2]
		if int(i0) >= n || int(i1) >= n || int(i2) >= n {
			continue
		}
		v0, v1, v2 := m.Vertices[i0], m.Vertices[i1], m.Vertices[i2]
		sum += dot(v0, cross(v1, v2))
	}
	return sum / 6
}

// AABB is an axis-aligned bounding box, valid only when Empty is false.
type AABB struct {
	Min, Max go3mf.Point3D
	Empty    bool
}

// Bounds returns the AABB of m's vertices. Requires at least one vertex and
// one triangle; otherwise Empty is true.
func Bounds(m *go3mf.Mesh) AABB {
	if len(m.Vertices) == 0 || len(m.Triangles) == 0 {
		return AABB{Empty: true}
	}
	min := m.Vertices[0]
	max := m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return AABB{Min: min, Max: max}
}

// TransformedBounds returns the AABB of m after applying transform to each
// of the 8 corners of its untransformed AABB and recomputing the bounds of
// the transformed corners. A nil transform is treated as the identity.
func TransformedBounds(m *go3mf.Mesh, transform *go3mf.Matrix) AABB {
	box := Bounds(m)
	if box.Empty {
		return box
	}
	tr := go3mf.Identity()
	if transform != nil {
		tr = *transform
	}
	corners := [8]go3mf.Point3D{
		{box.Min[0], box.Min[1], box.Min[2]},
		{box.Max[0], box.Min[1], box.Min[2]},
		{box.Min[0], box.Max[1], box.Min[2]},
		{box.Max[0], box.Max[1], box.Min[2]},
		{box.Min[0], box.Min[1], box.Max[2]},
		{box.Max[0], box.Min[1], box.Max[2]},
		{box.Min[0], box.Max[1], box.Max[2]},
		{box.Max[0], box.Max[1], box.Max[2]},
	}
	out := AABB{Min: ApplyTransform(corners[0], tr), Max: ApplyTransform(corners[0], tr)}
	for _, c := range corners[1:] {
		p := ApplyTransform(c, tr)
		for i := 0; i < 3; i++ {
			if p[i] < out.Min[i] {
				out.Min[i] = p[i]
			}
			if p[i] > out.Max[i] {
				out.Max[i] = p[i]
			}
		}
	}
	return out
}

// ApplyTransform applies the 4x3 affine transform to p.
func ApplyTransform(p go3mf.Point3D, t go3mf.Matrix) go3mf.Point3D {
	return go3mf.Point3D{
		t[0]*p[0] + t[3]*p[1] + t[6]*p[2] + t[9],
		t[1]*p[0] + t[4]*p[1] + t[7]*p[2] + t[10],
		t[2]*p[0] + t[5]*p[1] + t[8]*p[2] + t[11],
	}
}

// FaceNormal returns the normalized cross product of (v1-v0, v2-v0). A
// degenerate (collinear) triangle returns the zero vector.
func FaceNormal(v0, v1, v2 go3mf.Point3D) go3mf.Point3D {
	n := cross(sub(v1, v0), sub(v2, v0))
	return normalize(n)
}

// VertexNormals returns one area-weighted, normalized normal per vertex of
// m: the unnormalized face normal of each triangle is accumulated onto its
// three vertex slots before the final per-vertex normalization, so larger
// triangles contribute proportionally more.
func VertexNormals(m *go3mf.Mesh) []go3mf.Point3D {
	out := make([]go3mf.Point3D, len(m.Vertices))
	n := len(m.Vertices)
	for _, t := range m.Triangles {
		i0, i1, i2 := t.Indices[0], t.Indices[1], t.Indices[2]
		if int(i0) >= n || int(i1) >= n || int(i2) >= n {
			continue
		}
		v0, v1, v2 := m.Vertices[i0], m.Vertices[i1], m.Vertices[i2]
		weighted := cross(sub(v1, v0), sub(v2, v0))
		out[i0] = add(out[i0], weighted)
		out[i1] = add(out[i1], weighted)
		out[i2] = add(out[i2], weighted)
	}
	for i, v := range out {
		out[i] = normalize(v)
	}
	return out
}

func sub(a, b go3mf.Point3D) go3mf.Point3D {
	return go3mf.Point3D{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func add(a, b go3mf.Point3D) go3mf.Point3D {
	return go3mf.Point3D{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func cross(a, b go3mf.Point3D) go3mf.Point3D {
	return go3mf.Point3D{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot(a, b go3mf.Point3D) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func normalize(v go3mf.Point3D) go3mf.Point3D {
	length := math.Sqrt(dot(v, v))
	if length == 0 {
		return go3mf.Point3D{}
	}
	return go3mf.Point3D{v[0] / length, v[1] / length, v[2] / length}
}

// Length returns the Euclidean length of v.
func Length(v go3mf.Point3D) float64 {
	return math.Sqrt(dot(v, v))
}

// Dot returns the dot product of a and b.
func Dot(a, b go3mf.Point3D) float64 { return dot(a, b) }

// Edge is a manifold-check key: an undirected pair of vertex indices,
// canonicalized so (a,b) and (b,a) compare equal.
type Edge struct{ Lo, Hi uint32 }

// NewEdge returns the canonical Edge for the undirected pair (a,b).
func NewEdge(a, b uint32) Edge {
	if a < b {
		return Edge{a, b}
	}
	return Edge{b, a}
}

// EdgeCounts returns, for every undirected edge of m's triangles, how many
// triangles reference it. Used by the manifold check (spec.md §3.2: every
// edge in a mesh with >= 2 triangles must be shared by at most 2 triangles)
// and by the displacement-mesh directed-edge check.
func EdgeCounts(m *go3mf.Mesh) map[Edge]int {
	counts := make(map[Edge]int, len(m.Triangles)*3/2)
	for _, t := range m.Triangles {
		counts[NewEdge(t.Indices[0], t.Indices[1])]++
		counts[NewEdge(t.Indices[1], t.Indices[2])]++
		counts[NewEdge(t.Indices[2], t.Indices[0])]++
	}
	return counts
}

// DirectedEdge is an ordered vertex pair, used to check that a
// displacement mesh's winding is consistent (each directed edge must
// appear exactly once).
type DirectedEdge struct{ From, To uint32 }

// DirectedEdgeCounts returns, for every directed edge of m's triangles, how
// many times it appears.
func DirectedEdgeCounts(m *go3mf.Mesh) map[DirectedEdge]int {
	counts := make(map[DirectedEdge]int, len(m.Triangles)*3)
	for _, t := range m.Triangles {
		counts[DirectedEdge{t.Indices[0], t.Indices[1]}]++
		counts[DirectedEdge{t.Indices[1], t.Indices[2]}]++
		counts[DirectedEdge{t.Indices[2], t.Indices[0]}]++
	}
	return counts
}
