package main

import "github.com/sift-bio/sift/cmd"

func main() {
	cmd.Execute()
}
