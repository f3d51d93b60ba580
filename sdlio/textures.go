package sdlio

import (
	"fmt"

	"github.com/Zyko0/go-sdl3/img"
	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"

	"eyesync/engine"
)

type texture struct {
	tex  *sdl.Texture
	w, h float32
}

type textKey struct {
	content string
	color   engine.Color
}

// textureCache keeps rendered text and loaded images for the lifetime of the
// window so that frames never touch the disk or the font rasterizer twice.
type textureCache struct {
	renderer *sdl.Renderer
	font     *ttf.Font
	text     map[textKey]*texture
	images   map[string]*texture
	failed   map[string]bool
}

func newTextureCache(renderer *sdl.Renderer, font *ttf.Font) *textureCache {
	return &textureCache{
		renderer: renderer,
		font:     font,
		text:     make(map[textKey]*texture),
		images:   make(map[string]*texture),
		failed:   make(map[string]bool),
	}
}

func (c *textureCache) textTexture(content string, color engine.Color) (*texture, error) {
	key := textKey{content, color}
	if t, ok := c.text[key]; ok {
		return t, nil
	}
	if c.font == nil {
		return nil, fmt.Errorf("no font loaded")
	}
	surf, err := c.font.RenderTextBlended(content, sdl.Color{R: color.R, G: color.G, B: color.B, A: color.A})
	if err != nil {
		return nil, fmt.Errorf("render text %q: %w", content, err)
	}
	defer surf.Destroy()
	tex, err := c.renderer.CreateTextureFromSurface(surf)
	if err != nil {
		return nil, fmt.Errorf("text texture %q: %w", content, err)
	}
	t := &texture{tex: tex, w: float32(surf.W), h: float32(surf.H)}
	c.text[key] = t
	return t, nil
}

func (c *textureCache) image(path string) (*texture, error) {
	if t, ok := c.images[path]; ok {
		return t, nil
	}
	if c.failed[path] {
		return nil, fmt.Errorf("image %s failed to load earlier", path)
	}
	tex, err := img.LoadTexture(c.renderer, path)
	if err != nil {
		c.failed[path] = true
		return nil, fmt.Errorf("load image %s: %w", path, err)
	}
	w, h, _ := tex.Size()
	t := &texture{tex: tex, w: w, h: h}
	c.images[path] = t
	return t, nil
}

// Preload loads images ahead of the first frame that shows them.
func (c *textureCache) Preload(paths ...string) error {
	for _, p := range paths {
		if _, err := c.image(p); err != nil {
			return err
		}
	}
	return nil
}

func (c *textureCache) destroy() {
	for _, t := range c.text {
		t.tex.Destroy()
	}
	for _, t := range c.images {
		t.tex.Destroy()
	}
	clear(c.text)
	clear(c.images)
}
