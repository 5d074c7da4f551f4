package main

import "github.com/dbsmedya/polytrack/cmd/polytrack/cmd"

func main() {
	cmd.Execute()
}
