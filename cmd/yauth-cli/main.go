package main

import "github.com/nfrund/yauth/cmd/yauth-cli/cmd"

func main() {
	cmd.Execute()
}
