package main

import "github.com/jcdickinson/oxidoc/cmd"

func main() {
	cmd.Execute()
}
