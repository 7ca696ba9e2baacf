package main

import "github.com/LeJamon/goListingd/internal/cli"

func main() {
	cli.Execute()
}
