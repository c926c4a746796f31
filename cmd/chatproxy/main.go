package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/chatproxy/cmd/chatproxy/ask"
	servecmder "github.com/papercomputeco/chatproxy/cmd/chatproxy/serve"
)

var errorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("9"))

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chatproxy",
		Short:         "Server-side proxy for OpenRouter chat completions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(askcmder.NewAskCmd())

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
