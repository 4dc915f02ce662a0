// Package lspserver speaks LSP 3.16 over stdio for the source
// language: diagnostics from compile errors, completion over reserved
// forms and native function names, and hover showing a symbol's type.
package lspserver

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/nsprague/slisp/compiler"
	"github.com/nsprague/slisp/lexer"
	"github.com/nsprague/slisp/vm"
	"github.com/nsprague/slisp/worker"
)

const name = "slisp-lsp"

// reservedForms are the compiler's special forms, offered as
// completion candidates alongside native function names.
var reservedForms = []string{"def", "defonce", "set", "defun"}

// Server bridges LSP editor requests to a single scratch VM via a
// worker, so document edits never race script execution.
type Server struct {
	worker *worker.Worker

	mu   sync.Mutex
	docs map[string]string

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// New creates a Server wrapping a fresh VM honoring limits.
func New(limits vm.Limits) *Server {
	s := &Server{
		worker:  worker.New(vm.NewWithLimits(limits)),
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,

		TextDocumentDidOpen:   s.didOpen,
		TextDocumentDidChange: s.didChange,
		TextDocumentDidClose:  s.didClose,

		TextDocumentCompletion: s.completion,
		TextDocumentHover:      s.hover,
	}

	s.server = glspserver.NewServer(&s.handler, name, false)
	return s
}

// Run starts the server on stdio. Blocks until the client disconnects.
func (s *Server) Run() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "slisp LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	if len(params.ContentChanges) == 0 {
		return nil
	}
	last := params.ContentChanges[len(params.ContentChanges)-1]
	whole, ok := last.(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return nil
	}

	s.mu.Lock()
	s.docs[string(uri)] = whole.Text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, whole.Text)
	return nil
}

func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *Server) completion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := params.TextDocument.URI
	pos := params.Position

	s.mu.Lock()
	text, ok := s.docs[string(uri)]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, pos)

	names, err := s.worker.Do(func(v *vm.VM) interface{} {
		return v.NativeNames()
	})
	if err != nil {
		return nil, err
	}

	var items []protocol.CompletionItem
	lowerPrefix := strings.ToLower(prefix)

	add := func(label, detail string, kind protocol.CompletionItemKind) {
		if prefix != "" && !strings.HasPrefix(strings.ToLower(label), lowerPrefix) {
			return
		}
		l := label
		items = append(items, protocol.CompletionItem{
			Label:      l,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &l,
		})
	}

	for _, f := range reservedForms {
		add(f, "special form", protocol.CompletionItemKindKeyword)
	}
	for _, n := range names.([]string) {
		add(n, "native function", protocol.CompletionItemKindFunction)
	}

	return items, nil
}

func (s *Server) hover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI
	pos := params.Position

	s.mu.Lock()
	text, ok := s.docs[string(uri)]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	word := extractWord(text, pos)
	if word == "" {
		return nil, nil
	}

	result, err := s.worker.Do(func(v *vm.VM) interface{} {
		return v.DescribeGlobal(word)
	})
	if err != nil || result == nil {
		return nil, nil
	}
	desc := result.(string)
	if desc == "" {
		return nil, nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: fmt.Sprintf("**%s**\n\n%s", word, desc),
		},
	}, nil
}

func (s *Server) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	var diagnostics []protocol.Diagnostic

	if _, err := compiler.Compile(string(uri), text); err != nil {
		line, col := diagnosticPosition(err)
		severity := protocol.DiagnosticSeverityError
		source := name
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: col},
				End:   protocol.Position{Line: line, Character: col + 1},
			},
			Severity: &severity,
			Source:   &source,
			Message:  err.Error(),
		})
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnosticPosition extracts a zero-based line/column from a
// *compiler.CompileError or *lexer.LexError, falling back to 0,0 for
// any other error shape. Lexer/compiler positions are one-based.
func diagnosticPosition(err error) (uint32, uint32) {
	var pos lexer.Position
	switch e := err.(type) {
	case *compiler.CompileError:
		pos = e.Pos
	case *lexer.LexError:
		pos = e.Pos
	default:
		return 0, 0
	}
	line, col := pos.Line, pos.Column
	if line > 0 {
		line--
	}
	if col > 0 {
		col--
	}
	return uint32(line), uint32(col)
}

func extractPrefix(text string, pos protocol.Position) string {
	line := lineAt(text, pos)
	col := clampCol(line, pos)
	start := col
	for start > 0 && isIdentChar(rune(line[start-1])) {
		start--
	}
	return line[start:col]
}

func extractWord(text string, pos protocol.Position) string {
	line := lineAt(text, pos)
	col := clampCol(line, pos)
	start, end := col, col
	for start > 0 && isIdentChar(rune(line[start-1])) {
		start--
	}
	for end < len(line) && isIdentChar(rune(line[end])) {
		end++
	}
	if start == end {
		return ""
	}
	return line[start:end]
}

func lineAt(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	return lines[pos.Line]
}

func clampCol(line string, pos protocol.Position) int {
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}
	return col
}

func isIdentChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || strings.ContainsRune("+-*/?!_", ch)
}

func boolPtr(b bool) *bool {
	return &b
}
