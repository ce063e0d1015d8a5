package main

import (
	"log"
	"os"

	"pagkit"
)

func main() {
	if err := pagkit.Run(); err != nil {
		log.Fatal(err)
	}
	os.Exit(0)
}
