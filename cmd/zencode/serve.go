package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShimantoBhowmik/zen-code/internal/agent"
	"github.com/ShimantoBhowmik/zen-code/internal/config"
	"github.com/ShimantoBhowmik/zen-code/internal/git"
	"github.com/ShimantoBhowmik/zen-code/internal/pipeline"
	"github.com/ShimantoBhowmik/zen-code/internal/sandbox"
	"github.com/ShimantoBhowmik/zen-code/internal/session"
	"github.com/ShimantoBhowmik/zen-code/internal/state"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the change pipeline as an HTTP service",
	Long: `Serve the change pipeline over HTTP.

Endpoints:
  POST   /runs           Start a pipeline run, returns a session ID
  GET    /events/{id}    Stream run progress as server-sent events
  POST   /sessions       Create a bare event session
  DELETE /sessions/{id}  Close a session
  GET    /health         Liveness and session count

Each run streams its progress events to its session until the run
finishes, then closes the session.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "Listen address")
}

// runRequest is the POST /runs payload.
type runRequest struct {
	RepoURL    string `json:"repo_url"`
	Prompt     string `json:"prompt"`
	Branch     string `json:"branch,omitempty"`
	Model      string `json:"model,omitempty"`
	DryRun     bool   `json:"dry_run,omitempty"`
	NoValidate bool   `json:"no_validate,omitempty"`
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := CheckGitCLI(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client, err := agent.NewClient(agent.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}

	store, err := state.OpenDefault()
	if err != nil {
		return fmt.Errorf("open run database: %w", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate run database: %w", err)
	}

	launcher := &runLauncher{
		cfg:     cfg,
		backend: agent.NewAgent(client),
		store:   store,
	}

	registry := session.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle("/", session.NewServer(registry).Handler())
	mux.HandleFunc("POST /runs", func(w http.ResponseWriter, r *http.Request) {
		handleStartRun(w, r, registry, launcher)
	})

	httpServer := &http.Server{Addr: serveAddr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	color.Green("zen-code serving on %s", serveAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// runLauncher builds and starts one pipeline per accepted request.
type runLauncher struct {
	cfg     *config.Config
	backend pipeline.Backend
	store   *state.DB
}

// Start launches a pipeline run whose events feed the given session.
// The session is closed when the run finishes.
func (l *runLauncher) Start(sess *session.Session, registry *session.Registry, req runRequest) {
	sandboxes := sandbox.NewManager(l.cfg.Sandbox.Dir)
	if l.cfg.Sandbox.MaxRepoSizeMB > 0 {
		sandboxes.SetMaxRepoSizeMB(l.cfg.Sandbox.MaxRepoSizeMB)
	}

	emitter := pipeline.NewEmitter(100)
	p := pipeline.New(pipeline.Deps{
		Git:         git.NewRunner(""),
		Sandboxes:   sandboxes,
		Backend:     l.backend,
		Store:       l.store,
		Emitter:     emitter,
		GitHubToken: l.cfg.GitHub.Token,
	})

	go forwardEvents(registry, sess, emitter.Events())
	go func() {
		opts := pipeline.Options{
			RepoURL:  req.RepoURL,
			Prompt:   req.Prompt,
			Branch:   req.Branch,
			Model:    req.Model,
			DryRun:   req.DryRun,
			Validate: l.cfg.Validation.Enabled && !req.NoValidate,
		}
		_, _ = p.Run(context.Background(), opts)
		emitter.Close()
	}()
}

// forwardEvents bridges pipeline events into a session stream, then
// closes the session once the pipeline is done.
func forwardEvents(registry *session.Registry, sess *session.Session, events <-chan pipeline.Event) {
	for event := range events {
		data := map[string]interface{}{}
		if event.Message != "" {
			data["message"] = event.Message
		}
		for k, v := range event.Data {
			data[k] = v
		}
		if err := sess.Publish(session.Event{Type: string(event.Type), Data: data}); err != nil {
			// Session was closed by a client; keep draining the pipeline.
			continue
		}
	}
	_ = registry.Close(sess.ID())
}

func handleStartRun(w http.ResponseWriter, r *http.Request, registry *session.Registry, launcher *runLauncher) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.RepoURL == "" || req.Prompt == "" {
		writeJSONError(w, http.StatusBadRequest, "repo_url and prompt are required")
		return
	}

	sess := registry.Create("run")
	launcher.Start(sess, registry, req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"session_id": sess.ID(),
		"stream":     "/events/" + sess.ID(),
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
