// internal/httpserver/server.go
//
// HTTP server wiring for the bot.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words", "/metrics".
//   - Read-only game snapshots: GET /games/{chatID}.
//   - Telegram webhook: POST /telegram/webhook, when the bot runs in webhook mode.
//
// Notes:
//   - Snapshots never include the answer while the round is still running.
//   - The webhook handler checks Telegram's secret header itself.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle-with-friends/internal/game"
	"github.com/robalobadob/wordle-with-friends/internal/metrics"
	"github.com/robalobadob/wordle-with-friends/internal/words"
)

// Snapshotter loads the current round of a chat.
type Snapshotter interface {
	Snapshot(ctx context.Context, chatID int64) (*game.Session, error)
}

// Options configures a Server. Metrics and Webhook are optional.
// HideGames leaves GET /games/{chatID} unmounted; the route is unauthenticated.
type Options struct {
	Games        Snapshotter
	Dict         *words.Dictionary
	Metrics      *metrics.Metrics
	Webhook      http.Handler
	ClientOrigin string
	HideGames    bool
}

// Server bundles the router and its dependencies.
type Server struct {
	r    *chi.Mux
	opts Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	s := &Server{r: chi.NewRouter(), opts: opts}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)
	s.r.Use(cors(opts.ClientOrigin))

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"wordle-with-friends","endpoints":["/health","/metrics","GET /games/{chatID}","POST /telegram/webhook"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		legal, answers := s.opts.Dict.Stats()
		_ = json.NewEncoder(w).Encode(map[string]int{"legal": legal, "answers": answers})
	})
	if opts.Metrics != nil {
		s.r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	if !opts.HideGames {
		s.r.Get("/games/{chatID}", s.handleSnapshot)
	}

	if opts.Webhook != nil {
		s.r.Method(http.MethodPost, "/telegram/webhook", opts.Webhook)
	}

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info().Str("addr", addr).Msg("http server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors allows read access from a single browser origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ GAMES --------------------------------------

// snapshotRes is the payload of GET /games/{chatID}.
type snapshotRes struct {
	ID        string                  `json:"id"`
	ChatID    int64                   `json:"chatId"`
	Setter    string                  `json:"setter"`
	Length    int                     `json:"length"`
	Ongoing   bool                    `json:"ongoing"`
	Won       bool                    `json:"won"`
	Answer    string                  `json:"answer,omitempty"`
	Guesses   []guessRow              `json:"guesses"`
	Keyboard  map[string]game.Verdict `json:"keyboard"`
	StartedAt time.Time               `json:"startedAt"`
}

type guessRow struct {
	Word  string         `json:"word"`
	By    string         `json:"by"`
	Marks []game.Verdict `json:"marks"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"bad_chat_id"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.opts.Games.Snapshot(r.Context(), chatID)
	if err != nil {
		http.Error(w, `{"error":"store_failed"}`, http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(toSnapshot(sess))
}

func toSnapshot(sess *game.Session) snapshotRes {
	out := snapshotRes{
		ID:        sess.ID,
		ChatID:    sess.ChatID,
		Setter:    sess.Setter.Username,
		Length:    len(sess.Answer),
		Ongoing:   game.IsOngoing(sess),
		Won:       game.Won(sess),
		Guesses:   make([]guessRow, 0, len(sess.Guesses)),
		Keyboard:  make(map[string]game.Verdict),
		StartedAt: sess.CreatedAt,
	}
	if game.IsComplete(sess) {
		out.Answer = sess.Answer
	}
	results := game.Results(sess)
	for i, g := range sess.Guesses {
		out.Guesses = append(out.Guesses, guessRow{Word: g.Word, By: g.By.Username, Marks: results[i]})
	}
	for letter, v := range game.Keyboard(sess) {
		out.Keyboard[string(letter)] = v
	}
	return out
}
