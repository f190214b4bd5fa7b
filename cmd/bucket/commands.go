package bucket

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/moray/cmd/util"
	"github.com/ValentinKolb/moray/lib/moray"
	"github.com/spf13/cobra"
)

// printBucket prints every received bucket as one JSON line
func printBucket(bucket *moray.Bucket) error {
	return util.PrintJSON(bucket)
}

var (
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists all buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return morayClient.ListBuckets(moray.BucketOptions{}, printBucket)
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [name]",
		Short: "Reads the schema of a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return morayClient.GetBucket(args[0], moray.BucketOptions{}, printBucket)
		},
	}
	createCmd = &cobra.Command{
		Use:   "create [name]",
		Short: "Creates a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawIndex, _ := cmd.Flags().GetString("index")
			version, _ := cmd.Flags().GetInt("version")

			config := moray.BucketConfig{Options: moray.BucketSettings{Version: version}}
			if err := json.Unmarshal([]byte(rawIndex), &config.Index); err != nil {
				return fmt.Errorf("invalid index definition: %w", err)
			}

			if err := morayClient.CreateBucket(args[0], config, moray.BucketOptions{}); err != nil {
				return err
			}
			fmt.Printf("created bucket %s\n", args[0])
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [name]",
		Short: "Deletes a bucket and all of its objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := morayClient.DeleteBucket(args[0], moray.BucketOptions{}); err != nil {
				return err
			}
			fmt.Printf("deleted bucket %s\n", args[0])
			return nil
		},
	}
)
