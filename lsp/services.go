// Package lsp implements a Language Server Protocol server for rain
// documents.
package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/beehive-innovation/rainlang"
	"github.com/beehive-innovation/rainlang/meta"
)

// RainLanguageServices answers language intelligence queries over parsed
// rain documents. All methods are stateless over their document argument,
// so one instance serves any number of documents concurrently.
type RainLanguageServices struct {
	store    *meta.Store
	markup   protocol.MarkupKind
	relative bool
}

// ServicesOption configures a RainLanguageServices.
type ServicesOption func(*RainLanguageServices)

// WithMarkup sets the documentation flavor for completion and hover.
func WithMarkup(kind protocol.MarkupKind) ServicesOption {
	return func(s *RainLanguageServices) { s.markup = kind }
}

// WithRelatedInformation enables diagnostic related information.
func WithRelatedInformation() ServicesOption {
	return func(s *RainLanguageServices) { s.relative = true }
}

// NewRainLanguageServices builds a services instance over a shared store.
func NewRainLanguageServices(store *meta.Store, opts ...ServicesOption) *RainLanguageServices {
	s := &RainLanguageServices{store: store, markup: protocol.PlainText}
	if store == nil {
		s.store = meta.NewStore()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the shared content-addressed store.
func (s *RainLanguageServices) Store() *meta.Store { return s.store }

// NewRainDocument parses text synchronously against the local cache.
func (s *RainLanguageServices) NewRainDocument(text string, docURI uri.URI) *rainlang.RainDocument {
	_, _ = s.store.SetDotrain(text, string(docURI), false)
	return rainlang.Create(text, docURI, s.store)
}

// NewRainDocumentAsync parses text, fetching missing imports remotely.
func (s *RainLanguageServices) NewRainDocumentAsync(ctx context.Context, text string, docURI uri.URI) *rainlang.RainDocument {
	_, _ = s.store.SetDotrain(text, string(docURI), false)
	return rainlang.CreateAsync(ctx, text, docURI, s.store)
}

// DoValidate renders a document's problems as diagnostics.
func (s *RainLanguageServices) DoValidate(rd *rainlang.RainDocument) []protocol.Diagnostic {
	return Diagnostics(rd, s.relative)
}

// DoComplete answers a completion query at position. A nil result means
// the position is not a trigger point.
func (s *RainLanguageServices) DoComplete(rd *rainlang.RainDocument, position protocol.Position) []protocol.CompletionItem {
	return Complete(rd, position, s.markup)
}

// DoHover answers a hover query at position.
func (s *RainLanguageServices) DoHover(rd *rainlang.RainDocument, position protocol.Position) *protocol.Hover {
	return Hover(rd, position, s.markup)
}

// SemanticTokens renders the document's elided fragments as delta-encoded
// semantic tokens.
func (s *RainLanguageServices) SemanticTokens(rd *rainlang.RainDocument, tokenType, modifiersLen int) *protocol.SemanticTokens {
	return SemanticTokens(rd, tokenType, modifiersLen)
}
