package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/railbook/engine/internal/dispatch"
	"github.com/railbook/engine/internal/storage"
	"github.com/railbook/engine/pkg/config"
	"github.com/railbook/engine/pkg/logging"
)

var (
	flagDataDir        string
	flagIndexCacheSize int
	flagLeafCacheSize  int
	flagLogLevel       string
	flagLogFormat      string
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "railbook",
		Short: "railbook runs the ticket reservation engine's command protocol over stdin/stdout",
		RunE:  runServe,
	}

	root.Flags().StringVar(&flagDataDir, "data-dir", "./data", "directory holding railbook's on-disk stores")
	root.Flags().IntVar(&flagIndexCacheSize, "index-cache-size", config.DefaultIndexCacheSize, "B+ tree index node cache capacity")
	root.Flags().IntVar(&flagLeafCacheSize, "leaf-cache-size", config.DefaultLeafCacheSize, "B+ tree leaf node cache capacity")
	root.Flags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.Flags().StringVar(&flagLogFormat, "log-format", "console", "log format: console, json")

	root.AddCommand(newVersionCmd())
	return root
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("data_dir", cfg.DataDir).Msg("create data directory")
	}

	opts := storage.DefaultOptions()
	opts.IndexCacheCap = cfg.IndexCacheSize
	opts.LeafCacheCap = cfg.LeafCacheSize

	engine, err := dispatch.NewEngine(cfg.DataDir, opts, 0, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("open engine")
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Error().Err(err).Msg("close engine")
		}
	}()

	log.Info().Str("data_dir", cfg.DataDir).Msg("railbook ready")
	return runLoop(engine, log, os.Stdin, os.Stdout)
}

// runLoop reads one command per line from in, writes its response line
// to out, and stops once the `exit` command's "bye" response is sent.
// Structural failures from Execute (malformed command lines, storage
// I/O errors) are fatal; domain rejections never reach here as errors,
// since Execute already turns those into ordinary "-1" response lines.
func runLoop(engine *dispatch.Engine, log zerolog.Logger, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	writer := bufio.NewWriter(out)
	defer writer.Flush()

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		resp, err := engine.Execute(line)
		if err != nil {
			log.Error().Err(err).Str("line", line).Msg("command failed")
			return err
		}

		log.Debug().Str("line", line).Str("response", resp).Msg("command")
		if _, err := fmt.Fprintln(writer, resp); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
		if strings.HasSuffix(resp, "bye") {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	log.Info().Msg("shutting down")
	return engine.Flush()
}
