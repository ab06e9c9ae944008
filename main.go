package main

import (
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/cmd"
	_ "go.uber.org/automaxprocs"
)

func main() {
	cmd.Execute()
}
