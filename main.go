package main

import "github.com/jitlabs-sg/titan-bash/cmd"

func main() {
	cmd.Execute()
}
