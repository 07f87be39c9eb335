package main

import (
	"context"
	"os"

	"merchant-desk/internal/cli"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
