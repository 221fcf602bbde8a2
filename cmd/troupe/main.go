package main

import (
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may carry the keys.
	_ = godotenv.Load()
	Execute()
}
