package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firestige.xyz/strix/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the configuration file without starting the engine, then print
the normalized configuration with every default applied.

Examples:
  strix validate
  strix validate -c config.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		runValidateCommand()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidateCommand() {
	cfg, err := config.Load(configFile)
	if err != nil {
		exitWithError(fmt.Sprintf("invalid configuration %s", configFile), err)
	}

	out, err := yaml.Marshal(struct {
		Strix *config.Config `yaml:"strix"`
	}{cfg})
	if err != nil {
		exitWithError("failed to render configuration", err)
	}

	fmt.Printf("VALID: %s\n---\n%s", configFile, out)
}
