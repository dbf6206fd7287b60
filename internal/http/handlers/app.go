package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"batchgen/internal/domain"
)

// Archiver bundles the generated images of a job.
type Archiver interface {
	Archive(ctx context.Context, jobID string) ([]byte, int, error)
}

// Pinger reports database liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App carries the dependencies of the admin API handlers. References,
// Archives and DB are optional.
type App struct {
	Jobs       domain.BatchJobAdmin
	References domain.ReferenceRepository
	Archives   Archiver
	DB         Pinger
	NewID      func() string
}

func NewApp(jobs domain.BatchJobAdmin, refs domain.ReferenceRepository, archives Archiver, db Pinger) *App {
	return &App{Jobs: jobs, References: refs, Archives: archives, DB: db, NewID: uuid.NewString}
}

func (a *App) newID() string {
	if a.NewID != nil {
		return a.NewID()
	}
	return uuid.NewString()
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorResponse{Error: errCode, Message: message})
}

// storeError maps repository errors onto responses and logs anything
// unexpected with the request logger.
func (a *App) storeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "batch job not found")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(msg)
		a.error(w, http.StatusInternalServerError, "internal", msg)
	}
}
