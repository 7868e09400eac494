package main

import (
	"github.com/vitaly-t/equrlity-sub000/cmd/equrlity/commands"
)

func main() {
	commands.Execute()
}
