package cmd

import (
	"fmt"
	"os"

	"github.com/crashandsideburns/lawa/cmd/lukin"
	"github.com/crashandsideburns/lawa/cmd/pali"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "lawa",
	Short: "Toolchain for the lawa 16-bit instruction set architecture",
	Long: `lawa is a 16-bit word-oriented instruction set architecture.

This CLI is the entry point for its toolchain: pali, an assembler translating
parenthesized assembly source into a relocatable poki object file, and lukin,
an inspector that pretty-prints one.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to RootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(pali.Cmd, lukin.Cmd)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lawa.yaml)")
	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lawa")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
