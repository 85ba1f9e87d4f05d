package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// best effort; API keys may come from the environment directly
	_ = godotenv.Load()

	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
