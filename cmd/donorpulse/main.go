// cmd/donorpulse/main.go
package main

import (
	"context"

	"github.com/bluewavedigital/donorpulse/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

// main hands control to WAFFLE, which drives the lifecycle hooks in
// bootstrap: config loading, DB connection, schema setup, startup work,
// handler construction, serving, and graceful shutdown.
func main() {
	app.Run(context.Background(), bootstrap.Hooks)
}
