package main

import (
	"go.uber.org/fx"
	"podfetch/internal/app"
)

func main() {
	fx.New(app.CreateServer()).Run()
}
