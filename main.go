package main

import (
	cmd "github.com/rohmanhakim/offcache/internal/cli"
)

func main() {
	cmd.Execute()
}
