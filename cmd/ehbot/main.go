package main

import "github.com/nguyentranbao-ct/ehbot/cmd"

func main() {
	cmd.Execute()
}
