package main

import "github.com/oshokin/release-kit/cmd/release-validate/cmd"

func main() {
	cmd.Execute()
}
