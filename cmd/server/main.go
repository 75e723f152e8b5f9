package main

import "bhatta/internal/app/server"

func main() {
	server.Run()
}
