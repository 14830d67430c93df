package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/assistant"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/conversation"
	"github.com/parleyhq/parley/internal/orchestrator"
	"github.com/parleyhq/parley/internal/planner"
	"github.com/parleyhq/parley/internal/thread"
	"github.com/parleyhq/parley/internal/tui"
	"github.com/parleyhq/parley/pkg/models"
)

func runChat() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	apiKey := ""
	if !cfg.Anthropic.UseBedrock {
		apiKey, err = config.GetAPIKey(cfg)
		if err != nil {
			return fmt.Errorf("%w\n\nSet ANTHROPIC_API_KEY or add anthropic.api_key to %s",
				err, config.GetUserConfigPath())
		}
	}

	apiClient, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        apiKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("create API client: %w", err)
	}

	// Agent configs load by convention; broken ones are reported and
	// omitted, and the chat continues with a reduced roster.
	registry := config.NewAssistantRegistry(cfg.Agents.Dir)
	registry.LoadAll(cfg.Agents.Names, func(name string, err error) {
		fmt.Fprintf(os.Stderr, "warning: agent %s omitted: %v\n", name, err)
	})

	watcher, err := config.NewWatcher(registry)
	if err != nil {
		log.Printf("[chat] agent config hot reload unavailable: %v", err)
	} else {
		defer watcher.Close()
	}

	repoPath, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	db, err := thread.Open(thread.DefaultDBPath(repoPath))
	if err != nil {
		return fmt.Errorf("open thread database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate thread database: %w", err)
	}
	threads := thread.NewClient(db)

	agents := make(map[string]orchestrator.Agent)
	var plannerAgent *assistant.Client
	for _, name := range registry.Names() {
		client := assistant.New(name, registry, apiClient, threads)
		agents[name] = client
		if name == cfg.Agents.Planner {
			plannerAgent = client
		}
	}
	if plannerAgent == nil {
		return fmt.Errorf("planner agent %q is not in the loaded roster", cfg.Agents.Planner)
	}

	emitter := orchestrator.NewEventEmitter(orchestrator.DefaultEventBufferSize)
	defer emitter.Close()

	orch := orchestrator.New(orchestrator.Config{
		Agents:   agents,
		Threads:  threads,
		Producer: cfg.Agents.Producer,
		Consumer: cfg.Agents.Consumer,
		Emitter:  emitter,
	})
	manager := orchestrator.NewTaskManager(orch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	plan, err := planner.New(ctx, plannerAgent, threads)
	if err != nil {
		return fmt.Errorf("create planner: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Suppress log output while the TUI owns the terminal.
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	app := tui.NewChatApp()
	program := tea.NewProgram(app, tea.WithAltScreen())

	app.SetSubmitHandler(func(text string) {
		go func() {
			defer program.Send(tui.RoundDoneMsg{})

			result, err := plan.Plan(ctx, text)
			if err != nil {
				// A reply that fails to parse as a task list skips this
				// round; nothing is scheduled.
				log.Printf("[chat] planning round skipped: %v", err)
				return
			}

			program.Send(tui.AgentEventMsg{Event: orchestrator.Event{
				Type:      orchestrator.EventRunMessage,
				AgentName: plannerAgent.Name(),
				Message:   result.Reply,
			}})
			if result.NeedsConfirmation {
				return
			}

			manager.Schedule(ctx, result.Batch)
			if err := manager.WaitForAll(ctx); err != nil {
				log.Printf("[chat] wait for tasks: %v", err)
			}
		}()
	})

	renderer := conversation.NewRenderer(cfg.Output.Dir, conversation.DetectDarkMode)
	go forwardEvents(ctx, emitter, program, renderer, cfg.Output.Dir)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}

	log.SetOutput(originalOutput)
	if dropped := emitter.DroppedCount(); dropped > 0 {
		log.Printf("[chat] %d events dropped during session", dropped)
	}

	in, out := apiClient.Tracker().Total()
	fmt.Printf("Session usage: %d input / %d output tokens across %d calls ($%.4f)\n",
		in, out, apiClient.Tracker().Calls(), apiClient.Tracker().Cost())
	return nil
}

// forwardEvents fans orchestrator events into the TUI and mirrors agent
// output into an HTML transcript under the output directory.
func forwardEvents(ctx context.Context, emitter *orchestrator.EventEmitter, program *tea.Program, renderer *conversation.Renderer, outputDir string) {
	transcriptPath := filepath.Join(outputDir, "transcript.html")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-emitter.Events():
			if !ok {
				return
			}
			program.Send(tui.AgentEventMsg{Event: ev})

			if ev.Type == orchestrator.EventRunMessage && ev.Error == nil {
				renderer.AppendMessage(ev.AgentName, ev.Message, renderer.TextColor(models.RoleAssistant))
				if err := os.MkdirAll(outputDir, 0o755); err != nil {
					continue
				}
				if err := os.WriteFile(transcriptPath, []byte(renderer.HTML()), 0o644); err != nil {
					log.Printf("[chat] write transcript: %v", err)
				}
			}
		}
	}
}
