package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/jward/cnls"
	"github.com/jward/cnls/internal/server"
)

const (
	serverName    = "cnls"
	serverVersion = "0.2.0"
)

var (
	flagScopes  []string
	flagWorkers int
	flagLogFile string
	flagVerbose int
	flagDebug   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "cnls",
	Short:         "Class-name language server for CSS utility classes",
	Long:          "cnls serves hover and go-to-definition for CSS utility-class literals in JavaScript, TypeScript, JSX, and TSX sources over the Language Server Protocol on stdio.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runServe,
}

func init() {
	rootCmd.Flags().StringArrayVar(&flagScopes, "scope", nil, `scope declaration, repeatable (e.g. "att:className,class")`)
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0, "workspace scan concurrency (default: CPU count)")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.Flags().CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "log protocol traffic")
}

func runServe(cmd *cobra.Command, args []string) error {
	// The protocol owns stdout; logs must go to stderr or a file.
	var logPath *string
	if flagLogFile != "" {
		logPath = &flagLogFile
	}
	commonlog.Configure(flagVerbose, logPath)

	var opts []cnls.Option
	if len(flagScopes) > 0 {
		opts = append(opts, cnls.WithScopes(flagScopes))
	}
	if flagWorkers > 0 {
		opts = append(opts, cnls.WithWorkers(flagWorkers))
	}

	engine, err := cnls.New(opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	return server.New(engine, serverName, serverVersion, flagDebug).RunStdio()
}
