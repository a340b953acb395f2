// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// configPath 配置文件或其所在目录，空值时从当前目录和环境变量加载.
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "attachvault",
		Short: "A direct-upload attachment service",
		Long:  "attachvault issues signed direct-upload grants, binds uploaded blobs to records and runs the analyze pipeline.",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose diagnostic output")

	registerServeCommand()
	registerConfigsCommands()
	registerDBCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
