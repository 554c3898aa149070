package main

import (
	"github.com/lspmux/lspmux/cmd"
	"github.com/lspmux/lspmux/internal/logging"
)

func main() {
	defer logging.RecoverPanic("main", nil)
	cmd.Execute()
}
