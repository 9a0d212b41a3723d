// internal/app/features/devices/templates.go
package devices

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "devices",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
