// Package remote provides a graph served by a LangGraph-compatible HTTP
// server. Runs are streamed over server-sent events; the server keeps the
// thread state and the pending interrupts.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/openai/openai-go/packages/ssestream"
	"github.com/tidwall/gjson"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
	"github.com/spetersoncode/agentcli/graph"
)

// DefaultAssistantID is used when the agent spec names no attribute.
const DefaultAssistantID = "agent"

// APIKeyEnv is the environment variable read for the server API key.
const APIKeyEnv = "LANGGRAPH_API_KEY"

// Option configures a remote Graph.
type Option func(*Graph)

// WithAPIKey sends key in the x-api-key header.
func WithAPIKey(key string) Option {
	return func(g *Graph) {
		g.apiKey = key
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Graph) {
		g.client = c
	}
}

// Graph streams runs of one assistant on a LangGraph server.
type Graph struct {
	baseURL     string
	assistantID string
	apiKey      string
	client      *http.Client

	mu      sync.Mutex
	threads map[string]string // run ID to thread ID
}

// New creates a client for the assistant at baseURL.
func New(baseURL, assistantID string, opts ...Option) (*Graph, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("remote graph: invalid server url %q", baseURL)
	}
	if assistantID == "" {
		assistantID = DefaultAssistantID
	}
	g := &Graph{
		baseURL:     strings.TrimRight(baseURL, "/"),
		assistantID: assistantID,
		client:      http.DefaultClient,
		threads:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// AssistantID returns the assistant the graph runs.
func (g *Graph) AssistantID() string {
	return g.assistantID
}

// Ping checks that the server answers its health endpoint.
func (g *Graph) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/ok", nil)
	if err != nil {
		return err
	}
	if g.apiKey != "" {
		req.Header.Set("x-api-key", g.apiKey)
	}
	res, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET /ok: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		return &StatusError{Path: "/ok", StatusCode: res.StatusCode}
	}
	return nil
}

type command struct {
	Resume *ai.ResumePayload `json:"resume"`
}

type runRequest struct {
	AssistantID string    `json:"assistant_id"`
	Input       any       `json:"input"`
	Command     *command  `json:"command,omitempty"`
	Config      ai.Config `json:"config,omitempty"`
	StreamMode  []string  `json:"stream_mode"`
	IfNotExists string    `json:"if_not_exists,omitempty"`
}

// Stream starts a run on the thread named by the config. The server creates
// a named thread it does not know yet; without a name a new thread is made.
func (g *Graph) Stream(ctx context.Context, in ai.Input, opts ...graph.Option) iter.Seq2[chunk.Chunk, error] {
	mode := graph.ApplyOptions(opts...).StreamMode
	return func(yield func(chunk.Chunk, error) bool) {
		threadID := in.Config.ThreadID()
		if threadID == "" {
			var err error
			if threadID, err = g.createThread(ctx); err != nil {
				yield(chunk.Chunk{}, &ai.StreamingError{Err: err})
				return
			}
		}
		req := runRequest{
			AssistantID: g.assistantID,
			Input:       in,
			Config:      in.Config,
			StreamMode:  streamModes(mode),
			IfNotExists: "create",
		}
		g.run(ctx, threadID, req, mode, yield)
	}
}

// Resume sends the decisions as the resume command of a new run on the
// thread runID belongs to.
func (g *Graph) Resume(ctx context.Context, runID string, in ai.Input, opts ...graph.Option) iter.Seq2[chunk.Chunk, error] {
	mode := graph.ApplyOptions(opts...).StreamMode
	return func(yield func(chunk.Chunk, error) bool) {
		threadID := in.Config.ThreadID()
		if threadID == "" {
			g.mu.Lock()
			threadID = g.threads[runID]
			g.mu.Unlock()
		}
		if threadID == "" {
			yield(chunk.Chunk{}, &ai.InterruptProtocolError{Msg: "resume run " + runID, Err: ai.ErrNoPendingInterrupt})
			return
		}
		if in.Resume == nil {
			yield(chunk.Chunk{}, &ai.InterruptProtocolError{Msg: "resume without decisions"})
			return
		}
		req := runRequest{
			AssistantID: g.assistantID,
			Command:     &command{Resume: in.Resume},
			Config:      in.Config,
			StreamMode:  streamModes(mode),
		}
		g.run(ctx, threadID, req, mode, yield)
	}
}

// streamModes always includes updates: interrupts only arrive there.
func streamModes(mode graph.StreamMode) []string {
	switch mode {
	case graph.ModeMessages:
		return []string{"messages-tuple", "updates"}
	case graph.ModeValues:
		return []string{"values", "updates"}
	default:
		return []string{"updates"}
	}
}

func (g *Graph) createThread(ctx context.Context) (string, error) {
	res, err := g.post(ctx, "/threads", map[string]any{}, "application/json")
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	id := gjson.GetBytes(body, "thread_id").String()
	if id == "" {
		return "", errors.New("create thread: response has no thread_id")
	}
	return id, nil
}

func (g *Graph) post(ctx context.Context, path string, payload any, accept string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	if g.apiKey != "" {
		req.Header.Set("x-api-key", g.apiKey)
	}
	res, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		defer res.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		detail := gjson.GetBytes(msg, "detail").String()
		if detail == "" {
			detail = strings.TrimSpace(string(msg))
		}
		return nil, &StatusError{Path: path, StatusCode: res.StatusCode, Detail: detail}
	}
	return res, nil
}

// StatusError is an HTTP error response from the server.
type StatusError struct {
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Path, e.StatusCode, e.Detail)
}

func (g *Graph) run(ctx context.Context, threadID string, req runRequest, mode graph.StreamMode, yield func(chunk.Chunk, error) bool) {
	res, err := g.post(ctx, "/threads/"+url.PathEscape(threadID)+"/runs/stream", req, "text/event-stream")
	if err != nil {
		yield(chunk.Chunk{}, &ai.StreamingError{Err: err})
		return
	}
	stream := ssestream.NewDecoder(res)
	defer stream.Close()

	p := newParser(mode, req.Command != nil)
	for stream.Next() {
		ev := stream.Event()
		if ev.Type == "metadata" {
			if id := gjson.GetBytes(ev.Data, "run_id").String(); id != "" {
				p.runID = id
				g.mu.Lock()
				g.threads[id] = threadID
				g.mu.Unlock()
			}
			continue
		}
		chunks, err := p.parse(ev.Type, ev.Data)
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
		if err != nil {
			yield(chunk.Chunk{}, err)
			return
		}
		if p.ended {
			break
		}
	}
	if err := stream.Err(); err != nil {
		yield(chunk.Chunk{}, &ai.StreamingError{RunID: p.runID, Err: err})
		return
	}
	if !p.interrupted {
		yield(chunk.NewComplete(p.runID), nil)
	}
}

var _ graph.Graph = (*Graph)(nil)
