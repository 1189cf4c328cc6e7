package main

import "github.com/frahmantamala/consent-management/cmd"

func main() {
	cmd.Execute()
}
