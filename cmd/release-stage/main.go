package main

import "github.com/oshokin/release-kit/cmd/release-stage/cmd"

func main() {
	cmd.Execute()
}
