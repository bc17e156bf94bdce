package lsp

import (
	"context"
	"encoding/json"
	"sync"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/beehive-innovation/rainlang"
)

// elidedTokenType is the index of the single token type this server
// registers in its semantic tokens legend.
const elidedTokenType = 0

// Server handles LSP requests over rain documents. Document state lives
// behind a read/write lock; diagnostics publish outside the lock so the
// client can keep sending requests while we notify.
type Server struct {
	client   protocol.Client
	logger   *zap.Logger
	services *RainLanguageServices

	mu        sync.RWMutex
	documents map[protocol.DocumentURI]*Document

	initialized bool
	shutdown    bool
}

// Document is one open document and its latest parse.
type Document struct {
	URI     protocol.DocumentURI
	Version int32
	Content string
	Parsed  *rainlang.RainDocument
}

// NewServer builds a server over shared language services.
func NewServer(client protocol.Client, logger *zap.Logger, services *RainLanguageServices) *Server {
	if services == nil {
		services = NewRainLanguageServices(nil, WithMarkup(protocol.Markdown))
	}
	return &Server{
		client:    client,
		logger:    logger,
		services:  services,
		documents: make(map[protocol.DocumentURI]*Document),
	}
}

// Handler dispatches incoming jsonrpc2 requests to the server's methods.
func (s *Server) Handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case protocol.MethodInitialize:
			var params protocol.InitializeParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Initialize(ctx, &params)
			return reply(ctx, result, err)

		case protocol.MethodInitialized:
			return reply(ctx, nil, s.Initialized(ctx))

		case protocol.MethodShutdown:
			return reply(ctx, nil, s.Shutdown(ctx))

		case protocol.MethodExit:
			return reply(ctx, nil, s.Exit(ctx))

		case protocol.MethodTextDocumentDidOpen:
			var params protocol.DidOpenTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidOpen(ctx, &params))

		case protocol.MethodTextDocumentDidChange:
			var params protocol.DidChangeTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidChange(ctx, &params))

		case protocol.MethodTextDocumentDidClose:
			var params protocol.DidCloseTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidClose(ctx, &params))

		case protocol.MethodTextDocumentDidSave:
			var params protocol.DidSaveTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidSave(ctx, &params))

		case protocol.MethodTextDocumentCompletion:
			var params protocol.CompletionParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Completion(ctx, &params)
			return reply(ctx, result, err)

		case protocol.MethodTextDocumentHover:
			var params protocol.HoverParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Hover(ctx, &params)
			return reply(ctx, result, err)

		case protocol.MethodSemanticTokensFull:
			var params protocol.SemanticTokensParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.SemanticTokensFull(ctx, &params)
			return reply(ctx, result, err)

		default:
			return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
		}
	}
}

// Initialize handles the initialize request.
func (s *Server) Initialize(_ context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s.logger.Info("Initialize", zap.Any("clientInfo", params.ClientInfo))

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			HoverProvider: true,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{"@", ".", "'"},
				ResolveProvider:   false,
			},
			SemanticTokensProvider: map[string]interface{}{
				"legend": protocol.SemanticTokensLegend{
					TokenTypes:     []protocol.SemanticTokenTypes{protocol.SemanticTokenKeyword},
					TokenModifiers: []protocol.SemanticTokenModifiers{protocol.SemanticTokenModifierDeclaration},
				},
				"full": true,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "rainlang-lsp",
			Version: "0.1.0",
		},
	}, nil
}

// Initialized handles the initialized notification.
func (s *Server) Initialized(_ context.Context) error {
	s.logger.Info("Initialized")
	s.initialized = true
	return nil
}

// Shutdown handles the shutdown request.
func (s *Server) Shutdown(_ context.Context) error {
	s.logger.Info("Shutdown")
	s.shutdown = true
	return nil
}

// Exit handles the exit notification.
func (s *Server) Exit(_ context.Context) error {
	s.logger.Info("Exit")
	return nil
}

// DidOpen parses the opened document and publishes its diagnostics.
func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.logger.Info("DidOpen", zap.String("uri", string(params.TextDocument.URI)))

	doc := &Document{
		URI:     params.TextDocument.URI,
		Version: params.TextDocument.Version,
		Content: params.TextDocument.Text,
	}
	doc.Parsed = s.services.NewRainDocumentAsync(ctx,
		params.TextDocument.Text, uri.URI(params.TextDocument.URI))

	s.mu.Lock()
	s.documents[params.TextDocument.URI] = doc
	s.mu.Unlock()

	s.publishDiagnostics(ctx, doc)
	return nil
}

// DidChange re-parses on full sync and republishes diagnostics.
func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.logger.Debug("DidChange",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Int32("version", params.TextDocument.Version))

	if len(params.ContentChanges) == 0 {
		return nil
	}
	content := params.ContentChanges[len(params.ContentChanges)-1].Text
	parsed := s.services.NewRainDocumentAsync(ctx, content, uri.URI(params.TextDocument.URI))

	var docForDiagnostics *Document
	s.mu.Lock()
	doc, ok := s.documents[params.TextDocument.URI]
	if ok {
		doc.Content = content
		doc.Version = params.TextDocument.Version
		doc.Parsed = parsed
		docForDiagnostics = doc
	}
	s.mu.Unlock()
	if !ok {
		s.logger.Warn("DidChange for unknown document",
			zap.String("uri", string(params.TextDocument.URI)))
		return nil
	}

	s.publishDiagnostics(ctx, docForDiagnostics)
	return nil
}

// DidClose drops the document and clears its diagnostics.
func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.logger.Info("DidClose", zap.String("uri", string(params.TextDocument.URI)))

	s.mu.Lock()
	delete(s.documents, params.TextDocument.URI)
	s.mu.Unlock()

	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	if err != nil {
		s.logger.Error("Failed to clear diagnostics", zap.Error(err))
	}
	return nil
}

// DidSave is a no-op; every change already re-parses.
func (s *Server) DidSave(_ context.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.logger.Debug("DidSave", zap.String("uri", string(params.TextDocument.URI)))
	return nil
}

// Completion answers textDocument/completion.
func (s *Server) Completion(_ context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Parsed == nil {
		return nil, nil
	}
	items := s.services.DoComplete(doc.Parsed, params.Position)
	if items == nil {
		return nil, nil
	}
	return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

// Hover answers textDocument/hover.
func (s *Server) Hover(_ context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Parsed == nil {
		return nil, nil
	}
	return s.services.DoHover(doc.Parsed, params.Position), nil
}

// SemanticTokensFull answers textDocument/semanticTokens/full.
func (s *Server) SemanticTokensFull(_ context.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Parsed == nil {
		return nil, nil
	}
	return s.services.SemanticTokens(doc.Parsed, elidedTokenType, 1), nil
}

func (s *Server) publishDiagnostics(ctx context.Context, doc *Document) {
	diagnostics := s.services.DoValidate(doc.Parsed)
	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     uint32(doc.Version),
		Diagnostics: diagnostics,
	})
	if err != nil {
		s.logger.Error("Failed to publish diagnostics", zap.Error(err))
	}
}

func (s *Server) getDocument(docURI protocol.DocumentURI) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[docURI]
	return doc, ok
}
