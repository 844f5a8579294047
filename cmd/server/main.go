package main

import "mindwell/internal/app/server"

func main() {
	server.Run()
}
