package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "amber",
		Short:         "Web research agent and AgentCore endpoint tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCMD(), researchCMD(), endpointCMD())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
