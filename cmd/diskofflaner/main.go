package main

import (
	"context"
	"os"

	"github.com/diskofflaner/diskofflaner/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute(context.Background(), os.Stderr))
}
