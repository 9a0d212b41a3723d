// internal/app/features/heatmap/templates.go
package heatmap

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "heatmap",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
