package main

import (
	"os"

	"github.com/gaborage/go-openapi/internal/commands"
)

var version = "dev" // Will be set during build

func main() {
	os.Exit(commands.Execute(version))
}
