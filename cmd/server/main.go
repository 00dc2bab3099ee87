package main

import "festival-chat-api/config"

func main() {
	config.RunServer()
}
