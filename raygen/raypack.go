package raygen

import "github.com/achilleasa/playground/types"

// A batch of generated rays. Rays are stored batch-major (batch × height × width)
// until the pack is flattened.
type RayPack struct {
	Origins    []types.Vec3
	Directions []types.Vec3

	// Either [batch, height, width] or [n] for flat packs.
	Dims []int

	// Integer pixel coordinates for each pixel of the grid (optional).
	PixelX []int32
	PixelY []int32

	// Pixels outside the camera's valid field of view are marked with true.
	// A nil mask means that all rays are valid.
	Mask []bool
}

// Create a flat ray pack from origin and direction lists.
func NewFlat(origins, directions []types.Vec3) (*RayPack, error) {
	if len(origins) != len(directions) {
		return nil, ErrShapeMismatch
	}
	return &RayPack{
		Origins:    origins,
		Directions: directions,
		Dims:       []int{len(origins)},
	}, nil
}

// Get the number of rays in the pack.
func (rp *RayPack) Len() int {
	return len(rp.Origins)
}

// Returns true if the pack has been flattened to a single ray axis.
func (rp *RayPack) IsFlat() bool {
	return len(rp.Dims) == 1
}

// Get the batch size. Flat packs always report a batch of one.
func (rp *RayPack) Batch() int {
	if rp.IsFlat() {
		return 1
	}
	return rp.Dims[0]
}

// Get the pixel grid dimensions. Flat packs report a 1 x n grid.
func (rp *RayPack) Grid() (height, width int) {
	if rp.IsFlat() {
		return 1, rp.Dims[0]
	}
	return rp.Dims[1], rp.Dims[2]
}

// Return a flat view of the pack. The ray slices are shared with the source.
func (rp *RayPack) Flatten() *RayPack {
	return &RayPack{
		Origins:    rp.Origins,
		Directions: rp.Directions,
		Dims:       []int{len(rp.Origins)},
		PixelX:     rp.PixelX,
		PixelY:     rp.PixelY,
		Mask:       rp.Mask,
	}
}

// Split a flat pack into chunks of at most size rays. A non-positive size
// returns the pack itself. Chunks carry only ray data.
func (rp *RayPack) Split(size int) ([]*RayPack, error) {
	if size <= 0 {
		return []*RayPack{rp}, nil
	}
	if !rp.IsFlat() {
		return nil, ErrSplitNonFlat
	}

	chunks := make([]*RayPack, 0, (rp.Len()+size-1)/size)
	for start := 0; start < rp.Len(); start += size {
		end := start + size
		if end > rp.Len() {
			end = rp.Len()
		}
		chunks = append(chunks, &RayPack{
			Origins:    rp.Origins[start:end],
			Directions: rp.Directions[start:end],
			Dims:       []int{end - start},
		})
	}
	return chunks, nil
}
