package object

import (
	"github.com/ValentinKolb/moray/cmd/util"
	"github.com/ValentinKolb/moray/lib/moray"
	"github.com/spf13/cobra"
)

var (
	morayClient moray.IClient

	// ObjectCommands represents the object command group
	ObjectCommands = &cobra.Command{
		Use:               "object",
		Short:             "Read, write and search objects",
		PersistentPreRunE: setupObjectClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the object command
	util.SetupRPCClientFlags(ObjectCommands)

	// Add subcommands
	ObjectCommands.AddCommand(getCmd)
	ObjectCommands.AddCommand(putCmd)
	ObjectCommands.AddCommand(findCmd)
	ObjectCommands.AddCommand(deleteCmd)
	ObjectCommands.AddCommand(benchCmd)

	putCmd.Flags().String("etag", "", util.WrapString("Only replace the object if its current etag matches"))
	deleteCmd.Flags().String("etag", "", util.WrapString("Only delete the object if its current etag matches"))

	findCmd.Flags().Int("limit", 0, util.WrapString("Maximum number of results (0 uses the service default)"))
	findCmd.Flags().Int("offset", 0, util.WrapString("Number of results to skip"))
	findCmd.Flags().String("sort", "", util.WrapString("Attribute to sort the results by"))
	findCmd.Flags().Bool("desc", false, util.WrapString("Sort in descending order"))
	findCmd.Flags().Bool("no-count", false, util.WrapString("Skip counting the total number of matches"))
	findCmd.Flags().Bool("require-indexes", false, util.WrapString("Fail if the filter uses attributes that are not indexed"))
}

// setupObjectClient initializes the moray client
func setupObjectClient(cmd *cobra.Command, _ []string) error {
	c, err := util.NewClient(cmd)
	if err != nil {
		return err
	}
	morayClient = c
	return nil
}
