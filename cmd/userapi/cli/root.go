package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "userapi",
		Short: "User-identity service with JWT authentication",
		Long: `UserAPI: a user-identity service exposing account lifecycle, credential
verification, and role-based access control over a REST API.

Accounts are created by administrators, authenticate with login and password,
and receive JWT bearer tokens. Deactivation is a reversible soft delete that
keeps the account's audit trail intact.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./userapi.yaml)")

	cobra.OnInitialize(initViper)

	cmd.AddCommand(newServeCmd(version))
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initViper() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("userapi")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.userapi")
	}

	viper.SetEnvPrefix("USERAPI")
	viper.AutomaticEnv()
	viper.ReadInConfig() // config file is optional
}
