package main

import "github.com/theirongolddev/sitebudget/cmd"

func main() {
	cmd.Execute()
}
