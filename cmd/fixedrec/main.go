package main

import (
	"github.com/ssargent/fixedrec/cmd/fixedrec/cmd"
	"github.com/ssargent/fixedrec/pkg/di"
)

func main() {
	// Initialize dependency injection container
	container := di.NewContainer()

	// Inject dependencies into cmd package
	cmd.SetContainer(container)

	cmd.Execute()
}
