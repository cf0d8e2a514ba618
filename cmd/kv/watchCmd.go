package kv

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	watchCmd = &cobra.Command{
		Use:   "watch [prefix]",
		Short: "Streams invalidation messages until interrupted",
		Long: "Subscribes to the invalidation channel and prints the key of " +
			"every mutation committed by any process sharing the namespace. " +
			"An optional prefix filters the stream.",
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
)

func runWatch(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}

	invalidations, err := kvStore.Invalidations(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to subscribe to invalidations: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	fmt.Printf("watching (prefix=%q), press ctrl-c to stop\n", prefix)

	for {
		select {
		case key, ok := <-invalidations:
			if !ok {
				return nil
			}
			if strings.HasPrefix(key, prefix) {
				fmt.Println(key)
			}
		case <-sig:
			return nil
		case <-cmd.Context().Done():
			return nil
		}
	}
}
