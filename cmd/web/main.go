package main

import "vieclam_backend/internal/app"

func main() {
	app.Run()
}
