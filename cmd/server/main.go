package main

import "schoolpay/internal/app/server"

func main() {
	server.Run()
}
