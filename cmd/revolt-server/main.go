// Package main is the entry point for the ReddRevolt faction game server.
// It only handles dependency injection, route setup and server lifecycle.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reddrevolt/revolt-server/internal/catalog"
	"github.com/reddrevolt/revolt-server/internal/domain/player"
	"github.com/reddrevolt/revolt-server/internal/events"
	"github.com/reddrevolt/revolt-server/internal/game"
	"github.com/reddrevolt/revolt-server/internal/hooks"
	"github.com/reddrevolt/revolt-server/internal/infra/storage"
	"github.com/reddrevolt/revolt-server/internal/network"
	"github.com/reddrevolt/revolt-server/internal/platform/config"
	"github.com/reddrevolt/revolt-server/internal/platform/logger"
	"github.com/reddrevolt/revolt-server/internal/platform/metrics"
)

// eventPersisterAdapter translates domain events to storage records.
type eventPersisterAdapter struct {
	repo storage.EventRepository
}

func (a *eventPersisterAdapter) Append(event events.GameEvent) error {
	payloadBytes, _ := json.Marshal(event.Payload)
	record := storage.EventRecord{
		ID:        event.ID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		TargetID:  event.TargetID,
		Payload:   string(payloadBytes),
		Round:     event.Round,
	}

	start := time.Now()
	err := a.repo.Append(context.Background(), record)
	metrics.Get().RecordEventWrite(time.Since(start), err)
	return err
}

func seedWorld(ctx context.Context, store storage.WorldStore, cfg config.Game, appLogger *logger.Logger) error {
	for _, name := range cfg.Factions {
		if err := store.EnsureFaction(ctx, name); err != nil {
			return err
		}
	}
	// The reference deployment ships with one demo player.
	if err := store.EnsurePlayer(ctx, player.NewPlayer("player1", "Player 1", cfg.DefaultEnergy)); err != nil {
		return err
	}
	appLogger.Info("World state seeded")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, appLogger *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		appLogger.Error("WebSocket upgrade failed: " + err.Error())
		return
	}
	client := network.NewClient(hub, conn)
	client.Register()
	go client.WritePump()
	go client.ReadPump()
}

func main() {
	log.Println("[REVOLT-SERVER] Initializing ReddRevolt Authoritative Server...")

	appLogger := logger.NewLogger()

	envCfg, err := config.ParseEnv()
	if err != nil {
		appLogger.Error("Failed to parse environment: " + err.Error())
		os.Exit(1)
	}
	gameCfg, err := config.LoadGame(envCfg.GameConfig)
	if err != nil {
		appLogger.Error("Failed to load game config: " + err.Error())
		os.Exit(1)
	}

	cat := catalog.Default()
	if envCfg.CatalogPath != "" {
		if cat, err = catalog.Load(envCfg.CatalogPath); err != nil {
			appLogger.Error("Failed to load catalog: " + err.Error())
			os.Exit(1)
		}
	}

	appLogger.Info("Initializing SQLite database '" + envCfg.DBPath + "'...")
	db, err := storage.InitSQLite(envCfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	worldStore := storage.NewSQLiteWorldStore(db)

	var eventRepo storage.EventRepository = storage.NewSQLiteEventRepository(db)
	if envCfg.EventDB == "postgres" {
		appLogger.Info("Using PostgreSQL event ledger...")
		pgdb, err := storage.InitPostgres(envCfg.PostgresDSN)
		if err != nil {
			appLogger.Error("Failed to initialize Postgres: " + err.Error())
			os.Exit(1)
		}
		eventRepo = storage.NewPostgresEventRepository(pgdb)
	}

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(&eventPersisterAdapter{repo: eventRepo})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seedWorld(ctx, worldStore, gameCfg, appLogger); err != nil {
		appLogger.Error("Failed to seed world: " + err.Error())
		os.Exit(1)
	}

	appLogger.Info("Bootstrapping game subsystems...")
	feed := game.NewFeed(gameCfg.FeedCapacity)
	resolver := game.NewResolver(worldStore, gameCfg.Factions, feed, eventLog, appLogger)
	triggers := game.NewTriggerEngine(cat)
	rewards := game.NewRewards(worldStore, feed, eventLog, appLogger)
	ranks := game.NewRankManager(cat.Ranks, worldStore, feed, eventLog, appLogger)
	polls := game.NewPollManager(gameCfg.PollDuration(), feed, eventLog, appLogger)
	rounds := game.NewRoundResolver(worldStore, gameCfg.BaselineScore, envCfg.RoundLength, envCfg.ArchiveDir, feed, eventLog, appLogger)

	if err := rounds.EnsureRound(ctx); err != nil {
		appLogger.Error("Failed to start first round: " + err.Error())
		os.Exit(1)
	}
	go rounds.Run(ctx, envCfg.RoundSweep)

	// Poll closing sweep
	go func() {
		ticker := time.NewTicker(envCfg.PollSweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				polls.CloseExpired()
			}
		}
	}()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(appLogger)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog)

	validator, err := hooks.NewValidator()
	if err != nil {
		appLogger.Error("Failed to compile hook schemas: " + err.Error())
		os.Exit(1)
	}
	dispatcher := hooks.NewDispatcher(worldStore, triggers, rewards, ranks, polls, eventLog, appLogger, gameCfg.UpvoteEnergy)

	// Setup API routes
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r, appLogger)
	})
	http.HandleFunc("/metrics", metrics.Handler())
	http.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	http.HandleFunc("/api/init", func(w http.ResponseWriter, r *http.Request) {
		count := 0
		raw, err := worldStore.Get(r.Context(), "count")
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
		if err == nil {
			json.Unmarshal([]byte(raw), &count)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"type":   "init",
			"postId": r.URL.Query().Get("postId"),
			"count":  count,
		})
	})

	http.HandleFunc("/api/increment", func(w http.ResponseWriter, r *http.Request) {
		if !requirePost(w, r) {
			return
		}
		count, err := worldStore.IncrBy(r.Context(), "count", 1)
		if err != nil {
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"type": "increment", "count": count})
	})

	http.HandleFunc("/api/decrement", func(w http.ResponseWriter, r *http.Request) {
		if !requirePost(w, r) {
			return
		}
		count, err := worldStore.IncrBy(r.Context(), "count", -1)
		if err != nil {
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"type": "decrement", "count": count})
	})

	http.HandleFunc("/api/join-faction", func(w http.ResponseWriter, r *http.Request) {
		if !requirePost(w, r) {
			return
		}
		var req struct {
			PlayerID string `json:"playerId"`
			Faction  string `json:"faction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		result, err := resolver.JoinFaction(r.Context(), req.PlayerID, req.Faction)
		if err != nil {
			appLogger.Error("join-faction failed: " + err.Error())
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": result.Success})
	})

	actionHandler := func(perform func(context.Context, string, int) (game.ActionResult, error)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !requirePost(w, r) {
				return
			}
			var req struct {
				PlayerID string `json:"playerId"`
				Cost     int    `json:"cost"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid payload", http.StatusBadRequest)
				return
			}
			result, err := perform(r.Context(), req.PlayerID, req.Cost)
			if err != nil {
				appLogger.Error("action failed: " + err.Error())
				http.Error(w, "storage unavailable", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, result)
		}
	}
	http.HandleFunc("/api/perform-raid", actionHandler(resolver.PerformRaid))
	http.HandleFunc("/api/perform-defend", actionHandler(resolver.PerformDefend))
	http.HandleFunc("/api/perform-influence", actionHandler(resolver.PerformInfluence))

	http.HandleFunc("/api/get-faction-scores", func(w http.ResponseWriter, r *http.Request) {
		factions, err := worldStore.ListFactions(r.Context())
		if err != nil {
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, factions)
	})

	http.HandleFunc("/api/get-activity-feed", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, feed.Entries())
	})

	http.HandleFunc("/api/quests", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cat.Quests)
	})

	http.HandleFunc("/api/achievements", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cat.Achievements)
	})

	http.HandleFunc("/api/polls", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, polls.Polls())
		case http.MethodPost:
			var req struct {
				Question string   `json:"question"`
				Options  []string `json:"options"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid payload", http.StatusBadRequest)
				return
			}
			if req.Question == "" || len(req.Options) < 2 {
				http.Error(w, "Invalid poll definition", http.StatusBadRequest)
				return
			}
			writeJSON(w, http.StatusOK, polls.CreatePoll(req.Question, req.Options))
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	http.HandleFunc("/api/polls/current", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, polls.CurrentPoll())
	})

	http.HandleFunc("/api/polls/vote", func(w http.ResponseWriter, r *http.Request) {
		if !requirePost(w, r) {
			return
		}
		var req struct {
			PollID   string `json:"pollId"`
			Option   string `json:"option"`
			PlayerID string `json:"playerId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		// Repeat or invalid votes are silently ignored, not errors.
		polls.Vote(req.PollID, req.Option, req.PlayerID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	http.HandleFunc("/api/polls/results", func(w http.ResponseWriter, r *http.Request) {
		results, ok := polls.Results(r.URL.Query().Get("pollId"))
		if !ok {
			http.Error(w, "poll not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, results)
	})

	hookHandler := func(name string, dispatch func(context.Context, []byte) error) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !requirePost(w, r) {
				return
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "Invalid payload", http.StatusBadRequest)
				return
			}
			if err := validator.Validate(name, body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if err := dispatch(r.Context(), body); err != nil {
				appLogger.Error("hook " + name + " failed: " + err.Error())
				http.Error(w, "hook dispatch failed", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		}
	}

	http.HandleFunc("/internal/hooks/game-event", hookHandler(hooks.HookGameEvent, func(ctx context.Context, body []byte) error {
		var hook hooks.GameEventHook
		if err := json.Unmarshal(body, &hook); err != nil {
			return err
		}
		return dispatcher.OnGameEvent(ctx, hook)
	}))
	http.HandleFunc("/internal/hooks/karma-change", hookHandler(hooks.HookKarmaChange, func(ctx context.Context, body []byte) error {
		var hook hooks.KarmaChangeHook
		if err := json.Unmarshal(body, &hook); err != nil {
			return err
		}
		return dispatcher.OnKarmaChange(ctx, hook)
	}))
	http.HandleFunc("/internal/hooks/player-join", hookHandler(hooks.HookPlayerJoin, func(ctx context.Context, body []byte) error {
		var hook hooks.PlayerJoinHook
		if err := json.Unmarshal(body, &hook); err != nil {
			return err
		}
		return dispatcher.OnPlayerJoin(ctx, hook)
	}))
	http.HandleFunc("/internal/hooks/vote", hookHandler(hooks.HookVote, func(ctx context.Context, body []byte) error {
		var hook hooks.VoteHook
		if err := json.Unmarshal(body, &hook); err != nil {
			return err
		}
		return dispatcher.OnUpvote(ctx, hook)
	}))

	go func() {
		log.Println("[REVOLT-SERVER] HTTP API & WS Server listening on " + envCfg.Addr)
		if err := http.ListenAndServe(envCfg.Addr, nil); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[REVOLT-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[REVOLT-SERVER] Shutting down...")
}
