package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "confpilot"}

	root.AddCommand(serveCMD(), migrateCMD())
	_ = root.Execute()
}
