package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
)

// main writes solid-colour product images under MEDIA_ROOT (default
// ./media) so drafts can reference them by imageSource, e.g.
// "hats/red.png".
func main() {
	root := os.Getenv("MEDIA_ROOT")
	if root == "" {
		root = "media"
	}

	samples := map[string]color.RGBA{
		"hats/red.png":     {R: 200, G: 30, B: 30, A: 255},
		"hats/blue.png":    {R: 30, G: 60, B: 200, A: 255},
		"tops/green.png":   {R: 30, G: 160, B: 60, A: 255},
		"bottoms/grey.png": {R: 128, G: 128, B: 128, A: 255},
	}

	for name, c := range samples {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			log.Fatalf("Failed to create directory: %v", err)
		}
		if err := writeSquare(path, c, 256); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		fmt.Printf("Created %s\n", path)
	}
}

func writeSquare(path string, c color.RGBA, size int) error {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
