package kv

import (
	"github.com/spf13/cobra"

	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/lib/store/rstore"
)

var (
	kvStore *rstore.RStore[string]

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: teardownKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common Redis connection flags to the KV command
	util.SetupStoreFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(createCmd)
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(lsCmd)
	KeyValueCommands.AddCommand(casCmd)
	KeyValueCommands.AddCommand(watchCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient connects the store client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get serializer
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	// Connect the store
	kvStore, err = rstore.New[string](cmd.Context(), util.GetStoreConfig(), s)
	return err
}

// teardownKVClient disconnects the store client
func teardownKVClient(cmd *cobra.Command, _ []string) error {
	if kvStore == nil {
		return nil
	}
	return kvStore.Disconnect(cmd.Context())
}
