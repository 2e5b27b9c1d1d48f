package main

import (
	"go.brendoncarroll.net/star"

	"intcode.dev/intcode/iccmd"
)

func main() {
	star.Main(iccmd.Root())
}
