package main

import (
	"cmp"
	"fmt"
	"runtime"
	"time"

	"github.com/atinyakov/AnimalFacts/internal/tlscert"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "animal-facts",
		Short: "Serve random animal facts over HTTP",
		Long: `animal-facts serves random cat and dog facts from JSON files,
accepts fact flags from configured flaggers and exposes an admin API
for managing facts and flags.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the TOML config file (env CONFIG)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newAuditCmd(&configPath))
	rootCmd.AddCommand(newCertCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Build version: %s\n", cmp.Or(version, "N/A"))
			fmt.Fprintf(out, "Build date: %s\n", cmp.Or(buildDate, "N/A"))
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
		},
	}
}

func newAuditCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the most recent moderation events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printAudit(cmd.Context(), *configPath, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to print")
	return cmd
}

func newCertCmd() *cobra.Command {
	var (
		certPath string
		keyPath  string
		hosts    []string
		validFor time.Duration
	)

	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Generate a self-signed certificate for server.tls_cert and server.tls_key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tlscert.WriteFiles(certPath, keyPath, hosts, validFor); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Certificate written to %s\n", certPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Key written to %s\n", keyPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&certPath, "cert", "server.crt", "output path of the certificate")
	cmd.Flags().StringVar(&keyPath, "key", "server.key", "output path of the private key")
	cmd.Flags().StringSliceVar(&hosts, "host", []string{"localhost", "127.0.0.1"}, "DNS names or IPs the certificate is valid for")
	cmd.Flags().DurationVar(&validFor, "valid-for", 365*24*time.Hour, "certificate lifetime")
	return cmd
}
