package main

import "gestimmo/internal/app/server"

func main() {
	server.Run()
}
