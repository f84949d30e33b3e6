package main

import "social-house-backend/cmd"

func main() {
	cmd.Execute()
}
