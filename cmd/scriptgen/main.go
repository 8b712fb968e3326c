package main

import (
	// Load .env files so API keys can live next to the project during
	// development. Keychain remains the preferred source.
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	execute()
}
