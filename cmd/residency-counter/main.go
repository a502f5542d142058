package main

import (
	"os"

	"github.com/klabast/wb-services/residency-counter/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
