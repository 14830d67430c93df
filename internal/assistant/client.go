// Package assistant provides clients for named agents. An agent is bound to
// its YAML configuration and processes conversation threads or direct
// requests through the shared API client, reporting run lifecycle events
// to a RunListener.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/thread"
	"github.com/parleyhq/parley/pkg/models"
)

// RunStatus describes the state of an in-flight run.
type RunStatus string

const (
	// RunStatusInProgress indicates the run is waiting on the model.
	RunStatusInProgress RunStatus = "in_progress"
	// RunStatusCompleted indicates the run produced a response.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusFailed indicates the run ended with an error.
	RunStatusFailed RunStatus = "failed"
)

// RunListener receives run lifecycle events from an assistant client.
// Implementations must be safe for calls from the goroutine running the agent.
type RunListener interface {
	// OnRunStart fires when a run begins. userInput is the newest pending
	// user-visible input the run will respond to.
	OnRunStart(assistantName, runID, userInput string)
	// OnRunUpdate fires periodically while the run is in progress.
	// firstUpdate is true for the first update of a run.
	OnRunUpdate(assistantName, runID string, status RunStatus, firstUpdate bool)
	// OnRunEnd fires when a run finishes. response is empty for
	// thread-backed runs, whose output lands in the thread instead.
	OnRunEnd(ctx context.Context, assistantName, runID, threadID, response string)
}

// progressInterval is how often OnRunUpdate fires during a model call.
const progressInterval = 500 * time.Millisecond

// Client executes runs for one named agent.
type Client struct {
	name     string
	registry *config.AssistantRegistry
	api      *api.Client
	threads  *thread.Client
	listener RunListener

	// mu guards lastSeen.
	mu sync.Mutex
	// lastSeen maps thread IDs to the last message ID this agent processed.
	lastSeen map[string]string
}

// New creates a client for the named agent. The registry is consulted on
// every run so config hot-reloads take effect without rebuilding clients.
func New(name string, registry *config.AssistantRegistry, apiClient *api.Client, threads *thread.Client) *Client {
	return &Client{
		name:     name,
		registry: registry,
		api:      apiClient,
		threads:  threads,
		lastSeen: make(map[string]string),
	}
}

// SetListener sets the run lifecycle listener. Pass nil to silence events.
func (c *Client) SetListener(l RunListener) {
	c.listener = l
}

// Name returns the agent's name.
func (c *Client) Name() string {
	return c.name
}

// Role returns the agent's configured role, or "" when unconfigured.
func (c *Client) Role() string {
	cfg := c.registry.Get(c.name)
	if cfg == nil {
		return ""
	}
	return cfg.Role
}

// ProcessMessages has the agent respond to the pending messages on a thread.
// The response is appended to the thread; OnRunEnd fires with an empty
// response string to signal that the output must be read from the thread.
func (c *Client) ProcessMessages(ctx context.Context, threadID string) error {
	cfg := c.registry.Get(c.name)
	if cfg == nil {
		return fmt.Errorf("assistant %s is not configured", c.name)
	}

	conv, err := c.threads.Retrieve(ctx, threadID)
	if err != nil {
		return fmt.Errorf("retrieve thread %s: %w", threadID, err)
	}

	c.mu.Lock()
	pending := conv.PendingSince(c.lastSeen[threadID])
	c.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	turns := turnsFromConversation(conv, c.name)
	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		// Nothing addressed to this agent since its own last message.
		return nil
	}

	runID := uuid.New().String()
	c.emitStart(runID, pending[len(pending)-1].Content)

	response, err := c.complete(ctx, cfg, runID, turns)
	if err != nil {
		return err
	}

	reply, err := c.threads.AppendText(ctx, threadID, c.name, models.RoleAssistant, response)
	if err != nil {
		return fmt.Errorf("append response to thread: %w", err)
	}

	c.mu.Lock()
	c.lastSeen[threadID] = reply.ID
	c.mu.Unlock()

	if c.listener != nil {
		c.listener.OnRunEnd(ctx, c.name, runID, threadID, "")
	}
	return nil
}

// ProcessRequest has the agent respond to a single direct request with no
// thread context. The response is returned inline and also passed to
// OnRunEnd.
func (c *Client) ProcessRequest(ctx context.Context, userRequest string) (string, error) {
	cfg := c.registry.Get(c.name)
	if cfg == nil {
		return "", fmt.Errorf("assistant %s is not configured", c.name)
	}

	runID := uuid.New().String()
	c.emitStart(runID, userRequest)

	turns := []api.ChatTurn{{Role: "user", Content: userRequest}}
	response, err := c.complete(ctx, cfg, runID, turns)
	if err != nil {
		return "", err
	}

	if c.listener != nil {
		c.listener.OnRunEnd(ctx, c.name, runID, "", response)
	}
	return response, nil
}

// complete performs the model call with periodic progress updates.
func (c *Client) complete(ctx context.Context, cfg *config.AssistantConfig, runID string, turns []api.ChatTurn) (string, error) {
	done := make(chan struct{})
	if c.listener != nil {
		go func() {
			first := true
			ticker := time.NewTicker(progressInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					c.listener.OnRunUpdate(c.name, runID, RunStatusInProgress, first)
					first = false
				}
			}
		}()
	}

	response, err := c.api.Complete(ctx, api.CompleteRequest{
		Model:       anthropic.Model(cfg.Model),
		System:      cfg.Instructions,
		Turns:       turns,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	close(done)

	if err != nil {
		if c.listener != nil {
			c.listener.OnRunUpdate(c.name, runID, RunStatusFailed, false)
		}
		return "", fmt.Errorf("assistant %s run: %w", c.name, err)
	}

	if c.listener != nil {
		c.listener.OnRunUpdate(c.name, runID, RunStatusCompleted, false)
	}
	return response, nil
}

func (c *Client) emitStart(runID, userInput string) {
	if c.listener != nil {
		c.listener.OnRunStart(c.name, runID, userInput)
	}
}

// turnsFromConversation converts a thread's text messages into completion
// turns from the named agent's point of view: its own messages become
// assistant turns, everything else becomes user turns. Other agents'
// messages are prefixed with their sender name so the model can tell the
// participants apart. Consecutive same-role turns are merged because the
// completion API expects alternating roles.
func turnsFromConversation(conv *thread.Conversation, selfName string) []api.ChatTurn {
	var turns []api.ChatTurn
	for _, msg := range conv.Messages {
		if !msg.IsText() {
			continue
		}

		role := "user"
		content := msg.Content
		if msg.Sender == selfName {
			role = "assistant"
		} else if msg.Role == models.RoleAssistant {
			content = msg.Sender + ": " + content
		}

		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Content = strings.Join([]string{turns[n-1].Content, content}, "\n\n")
			continue
		}
		turns = append(turns, api.ChatTurn{Role: role, Content: content})
	}
	return turns
}
