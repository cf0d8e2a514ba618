package kv

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ValentinKolb/rKV/lib/store"
)

var (
	createCmd = &cobra.Command{
		Use:   "create [key] [value]",
		Short: "Creates a key, fails if it already exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			err := kvStore.CreateKey(cmd.Context(), key, value)
			if store.IsAlreadyExists(err) {
				fmt.Printf("key=%s already exists\n", key)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println("created successfully")
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Updates the value of an existing key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			err := kvStore.UpdateValue(cmd.Context(), key, value)
			if store.IsNotFound(err) {
				fmt.Printf("key=%s does not exist, use create first\n", key)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if resp, ok, err := kvStore.GetKey(cmd.Context(), key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
			}
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := kvStore.DeleteKey(cmd.Context(), key); err != nil {
				return err
			} else {
				fmt.Println("delete successfully")
			}
			return nil
		},
	}
	lsCmd = &cobra.Command{
		Use:   "ls [prefix]",
		Short: "Lists all keys under a prefix (empty prefix lists everything)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			keys, err := kvStore.ListKeysInDirectory(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			fmt.Printf("found %d key(s)\n", len(keys))
			for _, key := range keys {
				fmt.Println(key)
			}
			return nil
		},
	}
	casCmd = &cobra.Command{
		Use:   "cas [key] [expected] [next]",
		Short: "Swaps the value only if it currently equals the expectation",
		Long: "Compare-and-set. Pass --absent instead of an expected value to " +
			"require that the key does not exist yet.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			absent, _ := cmd.Flags().GetBool("absent")

			var expected *string
			var next string
			switch {
			case absent && len(args) == 2:
				next = args[1]
			case !absent && len(args) == 3:
				expected = &args[1]
				next = args[2]
			default:
				return fmt.Errorf("expected either [key] [expected] [next] or --absent [key] [next]")
			}

			swapped := kvStore.CompareAndSet(cmd.Context(), key, expected, next)
			fmt.Printf("swapped=%t\n", swapped)
			return nil
		},
	}
)

func init() {
	casCmd.Flags().Bool("absent", false, "Require the key to be absent instead of matching a value")
}
