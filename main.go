package main

import (
	"log"

	"grouptasks/cmd"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("could not start application: %v", err)
	}
}
