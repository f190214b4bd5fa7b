package sql

import (
	"github.com/ValentinKolb/moray/cmd/util"
	"github.com/ValentinKolb/moray/lib/moray"
	"github.com/spf13/cobra"
)

// SQLCmd runs a raw statement against the service
var SQLCmd = &cobra.Command{
	Use:   "sql [statement] [values...]",
	Short: "Runs a SQL statement with bound values and prints the result rows",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := util.NewClient(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		opts := moray.SQLOptions{}
		if timeout, _ := cmd.Flags().GetInt("statement-timeout"); timeout > 0 {
			opts["timeout"] = timeout
		}

		return client.SQL(args[0], args[1:], opts, func(row interface{}) error {
			return util.PrintJSON(row)
		})
	},
}

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	util.SetupRPCClientFlags(SQLCmd)
	SQLCmd.Flags().Int("statement-timeout", 0, util.WrapString("Server side timeout of the statement (in milliseconds)"))
}
