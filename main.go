package main

import (
	"os"

	"github.com/idsync/idsync/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
