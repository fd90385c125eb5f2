package main

import "github.com/oshokin/release-kit/cmd/release-target/cmd"

func main() {
	cmd.Execute()
}
