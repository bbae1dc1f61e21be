package scene

type AlphaMode int32

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

const (
	DefaultAlphaCutoff float32 = 0.5

	SolidMaterialName      = "solid"
	CheckboardMaterialName = "checkboard"
)

// A physically based material. Materials are immutable once registered;
// external edits must be signalled through the renderer's material
// invalidation.
type Material struct {
	// Stable id assigned at registration time.
	ID int32

	DiffuseMap           *Texture
	EmissiveMap          *Texture
	MetallicRoughnessMap *Texture
	NormalMap            *Texture

	DiffuseFactor  [4]float32
	EmissiveFactor [3]float32
	Metallic       float32
	Roughness      float32
	Transmission   float32
	IOR            float32

	AlphaMode   AlphaMode
	AlphaCutoff float32
}

// A material description supplied by mesh loaders. It is converted to a
// Material on registration.
type MaterialSpec struct {
	Name string

	DiffuseMap           *Texture
	EmissiveMap          *Texture
	MetallicRoughnessMap *Texture
	NormalMap            *Texture

	DiffuseFactor  [4]float32
	EmissiveFactor [3]float32
	Metallic       float32
	Roughness      float32
	Transmission   float32
	IOR            float32

	AlphaMode   AlphaMode
	AlphaCutoff float32
}

// Create a material spec with a white diffuse factor and the default alpha cutoff.
func NewMaterialSpec(name string) MaterialSpec {
	return MaterialSpec{
		Name:          name,
		DiffuseFactor: [4]float32{1, 1, 1, 1},
		IOR:           1,
		AlphaCutoff:   DefaultAlphaCutoff,
	}
}

func (s *MaterialSpec) toMaterial(id int32) *Material {
	return &Material{
		ID:                   id,
		DiffuseMap:           s.DiffuseMap,
		EmissiveMap:          s.EmissiveMap,
		MetallicRoughnessMap: s.MetallicRoughnessMap,
		NormalMap:            s.NormalMap,
		DiffuseFactor:        s.DiffuseFactor,
		EmissiveFactor:       s.EmissiveFactor,
		Metallic:             s.Metallic,
		Roughness:            s.Roughness,
		Transmission:         s.Transmission,
		IOR:                  s.IOR,
		AlphaMode:            s.AlphaMode,
		AlphaCutoff:          s.AlphaCutoff,
	}
}

// Build the two built-in materials: a flat light blue "solid" material
// (id 0) and a grey "checkboard" material (id 1).
func defaultMaterials() map[string]*Material {
	const (
		checkboardRes    = 512
		checkboardSquare = 20
	)

	solidMap := NewTexture(2, 2, 4)
	solidMap.Fill([]float32{130 / 255.0, 193 / 255.0, 1, 1})

	checkboardMap := NewTexture(checkboardRes, checkboardRes, 4)
	checkboardMap.Fill([]float32{0.25, 0.25, 0.25, 1})
	for i := 0; i < checkboardRes/checkboardSquare; i++ {
		for j := 0; j < checkboardRes/checkboardSquare; j++ {
			startX := (2*i + j%2) * checkboardSquare
			endX := min((2*i+1+j%2)*checkboardSquare, checkboardRes)
			startY := j * checkboardSquare
			endY := min((j+1)*checkboardSquare, checkboardRes)
			for y := startY; y < endY; y++ {
				for x := startX; x < endX; x++ {
					px := checkboardMap.At(x, y)
					px[0], px[1], px[2] = 0.5, 0.5, 0.5
				}
			}
		}
	}

	return map[string]*Material{
		SolidMaterialName: {
			ID:            0,
			DiffuseMap:    solidMap,
			DiffuseFactor: [4]float32{1, 1, 1, 1},
			IOR:           1,
			AlphaCutoff:   DefaultAlphaCutoff,
		},
		CheckboardMaterialName: {
			ID:            1,
			DiffuseMap:    checkboardMap,
			DiffuseFactor: [4]float32{1, 1, 1, 1},
			IOR:           1,
			AlphaCutoff:   DefaultAlphaCutoff,
		},
	}
}

