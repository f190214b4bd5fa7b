package bucket

import (
	"github.com/ValentinKolb/moray/cmd/util"
	"github.com/ValentinKolb/moray/lib/moray"
	"github.com/spf13/cobra"
)

var (
	morayClient moray.IClient

	// BucketCommands represents the bucket command group
	BucketCommands = &cobra.Command{
		Use:               "bucket",
		Short:             "Manage buckets",
		PersistentPreRunE: setupBucketClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the bucket command
	util.SetupRPCClientFlags(BucketCommands)

	// Add subcommands
	BucketCommands.AddCommand(listCmd)
	BucketCommands.AddCommand(getCmd)
	BucketCommands.AddCommand(createCmd)
	BucketCommands.AddCommand(deleteCmd)

	createCmd.Flags().String("index", "{}", util.WrapString(`Index definition as JSON object, e.g. {"color":{"type":"string"},"sku":{"type":"string","unique":true}}`))
	createCmd.Flags().Int("version", 0, util.WrapString("Version stored in the bucket options"))
}

// setupBucketClient initializes the moray client
func setupBucketClient(cmd *cobra.Command, _ []string) error {
	c, err := util.NewClient(cmd)
	if err != nil {
		return err
	}
	morayClient = c
	return nil
}
