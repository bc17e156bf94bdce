package lsp

import (
	"context"
	"strings"
	"sync"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// clientLogCore forwards log entries to the LSP client via
// window/logMessage so they show up in the editor's log viewer.
type clientLogCore struct {
	client  protocol.Client
	level   zapcore.Level
	encoder zapcore.Encoder
	fields  []zapcore.Field
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc

	// buffered so logging never blocks on a slow client
	queue chan clientLogEntry
}

type clientLogEntry struct {
	level   protocol.MessageType
	message string
}

// NewClientLogger builds a logger that tees entries to the LSP client and
// to fallbackCore, typically stderr.
func NewClientLogger(client protocol.Client, fallbackCore zapcore.Core, level zapcore.Level) *zap.Logger {
	ctx, cancel := context.WithCancel(context.Background())

	core := &clientLogCore{
		client: client,
		level:  level,
		encoder: zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey:     "msg",
			NameKey:        "logger",
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}),
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan clientLogEntry, 100),
	}
	go core.sender()

	return zap.New(zapcore.NewTee(core, fallbackCore))
}

func (c *clientLogCore) sender() {
	for {
		select {
		case entry := <-c.queue:
			// client may already be gone
			_ = c.client.LogMessage(c.ctx, &protocol.LogMessageParams{
				Type:    entry.level,
				Message: entry.message,
			})
		case <-c.ctx.Done():
			return
		}
	}
}

// Close stops the sender goroutine.
func (c *clientLogCore) Close() {
	c.cancel()
}

func (c *clientLogCore) Enabled(level zapcore.Level) bool {
	return level >= c.level
}

func (c *clientLogCore) With(fields []zapcore.Field) zapcore.Core {
	return &clientLogCore{
		client:  c.client,
		level:   c.level,
		encoder: c.encoder.Clone(),
		fields:  append(c.fields, fields...),
		ctx:     c.ctx,
		cancel:  c.cancel,
		queue:   c.queue,
	}
}

func (c *clientLogCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *clientLogCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf, err := c.encoder.EncodeEntry(entry, append(c.fields, fields...))
	if err != nil {
		return err
	}
	message := strings.TrimSpace(buf.String())
	buf.Free()

	var msgType protocol.MessageType
	switch entry.Level {
	case zapcore.DebugLevel:
		msgType = protocol.MessageTypeLog
	case zapcore.InfoLevel:
		msgType = protocol.MessageTypeInfo
	case zapcore.WarnLevel:
		msgType = protocol.MessageTypeWarning
	default:
		msgType = protocol.MessageTypeError
	}

	select {
	case c.queue <- clientLogEntry{level: msgType, message: message}:
	default:
		// queue full, drop
	}
	return nil
}

func (c *clientLogCore) Sync() error {
	return nil
}
