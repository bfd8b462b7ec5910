package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediagen-gateway/internal/bootstrap"
	"mediagen-gateway/internal/cache"
)

func newCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the fingerprint cache",
	}

	cacheCmd.AddCommand(newCacheClearCommand())

	return cacheCmd
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [namespace]",
		Short: "Remove cached entries, optionally only one namespace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespace := ""
			if len(args) == 1 {
				namespace = args[0]
				if !validNamespace(namespace) {
					return fmt.Errorf("unknown namespace %q (valid: %s)",
						namespace, strings.Join(cache.Namespaces(), ", "))
				}
			}

			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}

			store, err := bootstrap.Store(cfg, nil)
			if err != nil {
				return err
			}

			removed, err := store.Clear(cmd.Context(), namespace)
			if err != nil {
				return err
			}

			target := "all namespaces"
			if namespace != "" {
				target = namespace
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached entries from %s\n", removed, target)
			return nil
		},
	}
}

func validNamespace(namespace string) bool {
	for _, ns := range cache.Namespaces() {
		if ns == namespace {
			return true
		}
	}
	return false
}
