// Command rainlang-lsp is a Language Server Protocol server for rain
// documents.
package main

import (
	"context"
	"flag"
	"io"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/beehive-innovation/rainlang/lsp"
	"github.com/beehive-innovation/rainlang/meta"
)

var (
	configFlag = flag.String("config", "", "Path to a yaml store configuration")
	debugFlag  = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	// stdout carries the LSP stream, logs go to stderr
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if *debugFlag {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting rainlang-lsp server")

	if err := run(context.Background(), logger, os.Stdin, os.Stdout, *configFlag); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger, in io.Reader, out io.Writer, configPath string) error {
	storeConfig, err := meta.LoadConfig(configPath)
	if err != nil {
		return err
	}
	store, err := meta.NewStoreFromConfig(storeConfig, meta.WithLogger(logger))
	if err != nil {
		return err
	}

	stream := jsonrpc2.NewStream(&readWriteCloser{in, out})
	conn := jsonrpc2.NewConn(stream)

	client := protocol.ClientDispatcher(conn, logger)
	services := lsp.NewRainLanguageServices(store, lsp.WithMarkup(protocol.Markdown))
	server := lsp.NewServer(client, logger, services)

	conn.Go(ctx, server.Handler())
	<-conn.Done()
	return conn.Err()
}

// readWriteCloser wraps separate reader/writer into io.ReadWriteCloser.
type readWriteCloser struct {
	io.Reader
	io.Writer
}

func (rwc *readWriteCloser) Close() error {
	if c, ok := rwc.Writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
