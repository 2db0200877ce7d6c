package main

import "github.com/naka-gawa/issue-snapshot/cmd"

func main() {
	cmd.Execute()
}
