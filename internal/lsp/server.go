// Package lsp serves definition and hover lookups to editors over the
// Language Server Protocol on stdio.
package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"maps"
	"path/filepath"
	"sync"

	"github.com/phobologic/gscnav/internal/catalog"
	"github.com/phobologic/gscnav/internal/discover"
	"github.com/phobologic/gscnav/internal/resolve"
	"github.com/phobologic/gscnav/internal/source"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// WorkspaceFunc returns the locator for a client workspace root.
type WorkspaceFunc func(root string) resolve.Locator

// Options configures the server.
type Options struct {
	// Workspace builds the module locator once the client reports its root.
	// Defaults to a discover.Workspace over that root.
	Workspace WorkspaceFunc
	// Extension, Workers, and MaxFileSize are passed through to the resolver
	// and source reader.
	Extension   string
	Workers     int
	MaxFileSize int64
	// Catalog documents engine built-ins for hover. May be nil.
	Catalog *catalog.Catalog
	Version string
	Logger  *slog.Logger
}

// Server handles stdio JSON-RPC for gscnav.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	mu                sync.Mutex
	openDocs          map[string]string // keyed by source.Key
	workspaceRoot     string
	locator           resolve.Locator
	shutdownRequested bool
	pending           map[string]context.CancelFunc

	inflight sync.WaitGroup
	baseCtx  context.Context
	opts     Options
	logger   *slog.Logger
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts Options) *Server {
	if opts.Workspace == nil {
		opts.Workspace = defaultWorkspace
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		in:       bufio.NewReader(in),
		out:      bufio.NewWriter(out),
		openDocs: make(map[string]string),
		pending:  make(map[string]context.CancelFunc),
		baseCtx:  context.Background(),
		opts:     opts,
		logger:   logger,
	}
}

func defaultWorkspace(root string) resolve.Locator {
	return discover.New(discover.Options{Roots: []string{root}, RespectGitignore: true})
}

// Run serves LSP requests until the client exits or in is exhausted.
// In-flight requests are awaited before Run returns.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		s.inflight.Wait()
		cancel()
	}()
	s.baseCtx = ctx

	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn("failed to parse message", "err", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	s.logger.Debug("message", "method", msg.Method, "id", string(msg.ID))

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.isShutdown() {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "$/cancelRequest":
		return s.handleCancel(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	}

	if len(msg.ID) == 0 {
		return nil
	}
	if s.isShutdown() {
		return s.sendError(msg.ID, codeInvalidRequest, "server is shutting down")
	}
	switch msg.Method {
	case "textDocument/definition":
		return s.dispatch(msg, s.definition)
	case "textDocument/hover":
		return s.dispatch(msg, s.hover)
	default:
		return s.sendError(msg.ID, codeMethodNotFound, "method not found")
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	var locator resolve.Locator
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		locator = s.opts.Workspace(root)
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.locator = locator
	s.mu.Unlock()
	s.logger.Info("initialized workspace", "root", root)

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			HoverProvider:      true,
			DefinitionProvider: true,
		},
		ServerInfo: &serverInfo{Name: "gscnav", Version: s.opts.Version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	for _, cancel := range s.pending {
		cancel()
	}
	s.mu.Unlock()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) isShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownRequested
}

func (s *Server) handleCancel(msg *rpcMessage) error {
	var params cancelParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Debug("invalid cancel params", "err", err)
		return nil
	}
	s.mu.Lock()
	cancel, ok := s.pending[requestKey(params.ID)]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("invalid didOpen params", "err", err)
		return nil
	}
	path := uriToPath(params.TextDocument.URI)
	if path == "" {
		return nil
	}
	s.mu.Lock()
	s.openDocs[source.Key(path)] = params.TextDocument.Text
	s.mu.Unlock()
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("invalid didChange params", "err", err)
		return nil
	}
	path := uriToPath(params.TextDocument.URI)
	if path == "" {
		return nil
	}
	key := source.Key(path)
	s.mu.Lock()
	s.openDocs[key] = applyChanges(s.openDocs[key], params.ContentChanges)
	s.mu.Unlock()
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("invalid didSave params", "err", err)
		return nil
	}
	path := uriToPath(params.TextDocument.URI)
	if path == "" || params.Text == nil {
		return nil
	}
	s.mu.Lock()
	s.openDocs[source.Key(path)] = *params.Text
	s.mu.Unlock()
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("invalid didClose params", "err", err)
		return nil
	}
	path := uriToPath(params.TextDocument.URI)
	if path == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.openDocs, source.Key(path))
	s.mu.Unlock()
	return nil
}

// snapshot is the state a request works against, captured at dispatch.
type snapshot struct {
	overlay source.Overlay
	root    string
	locator resolve.Locator
}

func (s *Server) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		overlay: source.Overlay(maps.Clone(s.openDocs)),
		root:    s.workspaceRoot,
		locator: s.locator,
	}
}

func (s *Server) resolver(snap snapshot) (*resolve.Resolver, source.Reader) {
	reader := source.NewReader(snap.overlay, s.opts.MaxFileSize)
	return resolve.New(resolve.Options{
		Reader:    reader,
		Locator:   snap.locator,
		Extension: s.opts.Extension,
		Workers:   s.opts.Workers,
		Logger:    s.logger,
	}), reader
}

type requestFunc func(ctx context.Context, snap snapshot, params json.RawMessage) (any, error)

var errInvalidParams = errors.New("invalid params")

// dispatch runs fn on its own goroutine against a snapshot of the open
// documents. A request cancelled before it completes gets no response.
func (s *Server) dispatch(msg *rpcMessage, fn requestFunc) error {
	snap := s.snapshot()
	ctx, cancel := context.WithCancel(s.baseCtx)
	key := requestKey(msg.ID)

	s.mu.Lock()
	s.pending[key] = cancel
	s.mu.Unlock()

	id := msg.ID
	params := msg.Params
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			s.mu.Lock()
			delete(s.pending, key)
			s.mu.Unlock()
			cancel()
		}()

		result, err := fn(ctx, snap, params)
		if ctx.Err() != nil {
			s.logger.Debug("request cancelled", "id", key)
			return
		}
		if errors.Is(err, errInvalidParams) {
			err = s.sendError(id, codeInvalidParams, "invalid params")
		} else if err != nil {
			s.logger.Debug("request failed", "id", key, "err", err)
			err = s.sendResponse(id, nil)
		} else {
			err = s.sendResponse(id, result)
		}
		if err != nil {
			s.logger.Warn("failed to send response", "id", key, "err", err)
		}
	}()
	return nil
}

func requestKey(id json.RawMessage) string {
	return string(bytes.TrimSpace(id))
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}
