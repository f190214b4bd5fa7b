package object

import (
	"fmt"
	"github.com/ValentinKolb/moray/cmd/util"
	"github.com/ValentinKolb/moray/lib/moray"
	"github.com/spf13/cobra"
)

// printObject prints every received object as one JSON line
func printObject(object *moray.Object) error {
	return util.PrintJSON(object)
}

var (
	getCmd = &cobra.Command{
		Use:   "get [bucket] [key]",
		Short: "Reads an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return morayClient.GetObject(args[0], args[1], moray.ObjectOptions{}, printObject)
		},
	}
	putCmd = &cobra.Command{
		Use:   "put [bucket] [key] [value]",
		Short: "Creates or replaces an object, the value is a JSON object",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := util.ParseJSONObject(args[2])
			if err != nil {
				return err
			}
			etag, _ := cmd.Flags().GetString("etag")

			return morayClient.PutObject(args[0], args[1], value, moray.ObjectOptions{Etag: etag},
				func(result *moray.PutObjectResult) error {
					fmt.Printf("etag=%s\n", result.Etag)
					return nil
				})
		},
	}
	findCmd = &cobra.Command{
		Use:   "find [bucket] [filter]",
		Short: "Streams all objects matching an LDAP style filter, e.g. (&(color=red)(size>=3))",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := moray.ObjectOptions{}
			opts.Limit, _ = cmd.Flags().GetInt("limit")
			opts.Offset, _ = cmd.Flags().GetInt("offset")
			opts.NoCount, _ = cmd.Flags().GetBool("no-count")
			opts.RequireIndexes, _ = cmd.Flags().GetBool("require-indexes")

			if attribute, _ := cmd.Flags().GetString("sort"); attribute != "" {
				opts.Sort = &moray.SortOrder{Attribute: attribute, Order: moray.SortAsc}
				if desc, _ := cmd.Flags().GetBool("desc"); desc {
					opts.Sort.Order = moray.SortDesc
				}
			}

			return morayClient.FindObjects(args[0], args[1], opts, printObject)
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [bucket] [key]",
		Short: "Deletes an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			etag, _ := cmd.Flags().GetString("etag")
			if err := morayClient.DeleteObject(args[0], args[1], moray.ObjectOptions{Etag: etag}); err != nil {
				return err
			}
			fmt.Printf("deleted %s::%s\n", args[0], args[1])
			return nil
		},
	}
)
