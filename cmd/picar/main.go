package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/picar/cmd/picar/app"
)

func main() {
	app.NewApp().Run()
}
