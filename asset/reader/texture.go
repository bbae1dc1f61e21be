package reader

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/achilleasa/playground/asset"
	"github.com/achilleasa/playground/scene"
)

// Load and decode a texture referenced by a material library. Decoded
// textures are cached by their resolved path so materials sharing an image
// also share the texture data.
func (r *wavefrontReader) loadTexture(texPath string, relTo *asset.Resource) (*scene.Texture, error) {
	res, err := asset.NewResource(texPath, relTo)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	if tex, exists := r.textures[res.Path()]; exists {
		return tex, nil
	}

	img, format, err := image.Decode(res)
	if err != nil {
		return nil, fmt.Errorf("could not decode texture %q: %w", res.Path(), err)
	}
	tex := scene.TextureFromImage(img)
	r.textures[res.Path()] = tex

	r.logger.Infof(`loaded %s texture "%s" (%dx%d)`, format, res.Path(), tex.Width, tex.Height)
	return tex, nil
}
