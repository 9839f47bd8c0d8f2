// Command qmva runs the QM procedure desk.
package main

import "github.com/mesh-intelligence/qmva/internal/cli"

func main() {
	cli.Execute()
}
