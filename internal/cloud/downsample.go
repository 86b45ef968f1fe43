package cloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// VoxelCoords identifies one cubic bucket in the downsampling grid.
type VoxelCoords struct {
	I, J, K int64
}

// voxelCoordinates maps a point to its voxel in a grid of the given edge.
func voxelCoordinates(p r3.Vector, voxelSize float64) VoxelCoords {
	return VoxelCoords{
		I: int64(math.Floor(p.X / voxelSize)),
		J: int64(math.Floor(p.Y / voxelSize)),
		K: int64(math.Floor(p.Z / voxelSize)),
	}
}

type voxelAccum struct {
	sum   r3.Vector
	count int
}

// Downsample partitions space into cubes of edge voxelSizeMm and replaces
// every non-empty voxel's points with their component-wise mean. This both
// bounds cardinality and denoises the cloud. A non-positive voxel size
// returns the input unchanged.
//
// The operation is a fixed point: downsampling an already-downsampled cloud
// with the same voxel size leaves it unchanged, and the output never has more
// points than the input.
func Downsample(c *PointCloud, voxelSizeMm float64) *PointCloud {
	if c == nil || c.Size() == 0 || voxelSizeMm <= 0 {
		return c
	}

	voxels := make(map[VoxelCoords]*voxelAccum)
	for _, p := range c.Points() {
		key := voxelCoordinates(p, voxelSizeMm)
		acc, ok := voxels[key]
		if !ok {
			acc = &voxelAccum{}
			voxels[key] = acc
		}
		acc.sum = acc.sum.Add(p)
		acc.count++
	}

	out := NewWithPrealloc(len(voxels))
	for _, acc := range voxels {
		out.Add(acc.sum.Mul(1.0 / float64(acc.count)))
	}
	return out
}
