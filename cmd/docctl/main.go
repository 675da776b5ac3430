// Package main 是 docctl 命令行工具的入口点。
package main

import (
	"docbase-go/internal/cli"
	"fmt"
	"os"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
