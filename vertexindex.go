package go3mf

// vertexIndex is a coarse spatial hash used by MeshBuilder to find an
// existing vertex at exactly the same coordinates in O(1) amortized time,
// instead of a linear scan over every vertex added so far.
type vertexIndex struct {
	buckets map[[3]int64][]uint32
	points  []Point3D
}

func newVertexIndex() vertexIndex {
	return vertexIndex{buckets: make(map[[3]int64][]uint32)}
}

// quantum is the bucket resolution: each bucket spans 1e-5 units along
// every axis. find still compares coordinates exactly within a bucket.
const quantum = 1e5

func key(p Point3D) [3]int64 {
	return [3]int64{
		int64(p[0] * quantum),
		int64(p[1] * quantum),
		int64(p[2] * quantum),
	}
}

func (v *vertexIndex) find(p Point3D) (uint32, bool) {
	for _, idx := range v.buckets[key(p)] {
		if v.points[idx] == p {
			return idx, true
		}
	}
	return 0, false
}

func (v *vertexIndex) add(p Point3D, idx uint32) {
	k := key(p)
	v.buckets[k] = append(v.buckets[k], idx)
	for uint32(len(v.points)) <= idx {
		v.points = append(v.points, Point3D{})
	}
	v.points[idx] = p
}
