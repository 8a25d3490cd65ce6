// Package server binds the cnls engine to the Language Server Protocol via
// glsp. It owns nothing but translation: lifecycle notifications drive the
// engine's document sync, hover and definition map engine results onto
// protocol types, and configuration changes re-run scope parsing.
package server

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserv "github.com/tliron/glsp/server"

	"github.com/jward/cnls"
)

// Server is the LSP frontend for a cnls Engine.
type Server struct {
	engine  *cnls.Engine
	handler protocol.Handler
	log     commonlog.Logger

	name    string
	version string
	debug   bool

	rootPath string // workspace root, captured during initialize
}

// New wires a Server around an engine. name and version are reported to the
// client in the initialize response.
func New(engine *cnls.Engine, name, version string, debug bool) *Server {
	s := &Server{
		engine:  engine,
		name:    name,
		version: version,
		debug:   debug,
		log:     commonlog.GetLogger("cnls.server"),
	}
	s.handler = protocol.Handler{
		Initialize:                      s.initialize,
		Initialized:                     s.initialized,
		Shutdown:                        s.shutdown,
		SetTrace:                        s.setTrace,
		TextDocumentDidOpen:             s.didOpen,
		TextDocumentDidChange:           s.didChange,
		TextDocumentDidClose:            s.didClose,
		WorkspaceDidChangeConfiguration: s.didChangeConfiguration,
		TextDocumentHover:               s.hover,
		TextDocumentDefinition:          s.definition,
	}
	return s
}

// RunStdio serves the protocol over stdin/stdout until the client
// disconnects.
func (s *Server) RunStdio() error {
	return glspserv.NewServer(&s.handler, s.name, s.debug).RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if scopes, ok := scopeStrings(params.InitializationOptions); ok {
		s.configure(ctx, scopes)
	}

	if params.RootURI != nil {
		if p, err := cnls.URIToPath(string(*params.RootURI)); err == nil {
			s.rootPath = p
		}
	}
	if s.rootPath == "" && params.RootPath != nil {
		s.rootPath = *params.RootPath
	}
	if s.rootPath == "" && len(params.WorkspaceFolders) > 0 {
		if p, err := cnls.URIToPath(params.WorkspaceFolders[0].URI); err == nil {
			s.rootPath = p
		}
	}

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindFull

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    s.name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	if s.rootPath == "" {
		s.log.Warning("no workspace root; definition search is limited to open documents")
		return nil
	}
	// Background indexing must not block the notification stream.
	go func() {
		if err := s.engine.IndexWorkspace(context.Background(), s.rootPath); err != nil {
			s.log.Errorf("workspace indexing: %s", err)
		}
	}()
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	return s.engine.DidOpen(context.Background(), string(doc.URI), doc.LanguageID, doc.Text, int32(doc.Version))
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	// Full sync is declared in the capabilities, so every change carries the
	// whole document; apply the last one.
	text, ok := "", false
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text, ok = c.Text, true
		case protocol.TextDocumentContentChangeEvent:
			text, ok = c.Text, true
		}
	}
	if !ok {
		return nil
	}
	return s.engine.DidChange(context.Background(), uri, text, int32(params.TextDocument.Version))
}

func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	return s.engine.DidClose(context.Background(), string(params.TextDocument.URI))
}

func (s *Server) didChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	settings, _ := params.Settings.(map[string]any)
	section, _ := settings["cnls"].(map[string]any)
	scopes, ok := scopeStrings(section)
	if !ok {
		s.logToClient(ctx, protocol.MessageTypeWarning, "cnls.scopes should be an array of strings")
		return nil
	}
	s.configure(ctx, scopes)
	return nil
}

// configure applies a scope list, reporting every rejected declaration to
// the client. On error the engine keeps its previous configuration.
func (s *Server) configure(ctx *glsp.Context, scopes []string) {
	for _, cerr := range s.engine.Configure(context.Background(), scopes) {
		s.logToClient(ctx, protocol.MessageTypeWarning, fmt.Sprintf("cnls.scopes: %s", cerr))
	}
}

func (s *Server) hover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	pos := params.Position
	res, err := s.engine.Hover(string(params.TextDocument.URI), int(pos.Line), int(pos.Character))
	if err != nil {
		s.log.Errorf("hover: %s", err)
		return nil, nil
	}
	if res == nil {
		return nil, nil
	}

	r := toProtocolRange(res.Range)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: hoverMarkdown(res),
		},
		Range: &r,
	}, nil
}

func (s *Server) definition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	pos := params.Position
	locs, err := s.engine.Definition(string(params.TextDocument.URI), int(pos.Line), int(pos.Character))
	if err != nil {
		s.log.Errorf("definition: %s", err)
		return nil, nil
	}
	if len(locs) == 0 {
		return nil, nil
	}

	results := make([]protocol.Location, len(locs))
	for i, loc := range locs {
		results[i] = protocol.Location{
			URI:   protocol.DocumentUri(loc.URI),
			Range: toProtocolRange(loc.Range),
		}
	}
	return results, nil
}

func (s *Server) logToClient(ctx *glsp.Context, level protocol.MessageType, msg string) {
	if ctx == nil {
		s.log.Warning(msg)
		return
	}
	ctx.Notify("window/logMessage", protocol.LogMessageParams{Type: level, Message: msg})
}

// toProtocolRange converts an engine range (0-based lines, byte columns)
// onto the wire type.
func toProtocolRange(r cnls.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(r.StartLine), Character: protocol.UInteger(r.StartCol)},
		End:   protocol.Position{Line: protocol.UInteger(r.EndLine), Character: protocol.UInteger(r.EndCol)},
	}
}

// hoverMarkdown renders the hover summary: the class name, its occurrence
// count, and the declaring stylesheet when a CSS selector occurrence exists.
func hoverMarkdown(res *cnls.HoverResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "`%s`", res.Literal)

	others := res.Count - 1
	switch others {
	case 0:
		b.WriteString(" — no other occurrences")
	case 1:
		b.WriteString(" — 1 other occurrence")
	default:
		fmt.Fprintf(&b, " — %d other occurrences", others)
	}

	for _, o := range res.Occurrences {
		if o.Kind == cnls.ConstructSelector.String() {
			fmt.Fprintf(&b, "\n\ndeclared in %s:%d", displayName(o.URI), o.StartLine+1)
			break
		}
	}
	return b.String()
}

// displayName shortens a file URI for hover text.
func displayName(uri string) string {
	if p, err := cnls.URIToPath(uri); err == nil {
		return path.Base(p)
	}
	return uri
}

// scopeStrings extracts a "scopes" string list from a settings section.
func scopeStrings(section any) ([]string, bool) {
	m, ok := section.(map[string]any)
	if !ok {
		return nil, false
	}
	raw, ok := m["scopes"].([]any)
	if !ok {
		return nil, false
	}
	scopes := make([]string, 0, len(raw))
	for _, v := range raw {
		str, ok := v.(string)
		if !ok {
			return nil, false
		}
		scopes = append(scopes, str)
	}
	return scopes, true
}
