package main

import (
	"github.com/finnieassistant/finnie/cmd"
	_ "github.com/finnieassistant/finnie/pkg/logger/autoload"
)

func main() {
	cmd.Execute()
}
