package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/wastewatch/internal/logging"
	"github.com/dmitrijs2005/wastewatch/internal/server/metrics"
	"github.com/dmitrijs2005/wastewatch/internal/server/models"
	"github.com/dmitrijs2005/wastewatch/internal/server/services"
)

const (
	maxBodyBytes  = 1 << 20
	healthTimeout = 2 * time.Second
)

type AuthService interface {
	Signup(ctx context.Context, in services.SignupInput) (*models.Profile, error)
	Signin(ctx context.Context, in services.SigninInput) (*services.SigninResult, error)
	Profile(ctx context.Context, subjectID string) (*models.Profile, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	users   AuthService
	storage Pinger
	metrics *metrics.Metrics
	log     logging.Logger
}

func NewHandlers(us AuthService, storage Pinger, m *metrics.Metrics, log logging.Logger) *Handlers {
	return &Handlers{users: us, storage: storage, metrics: m, log: log.With("module", "rest.handlers")}
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.metrics.RecordAuth("signup", outcomeFor(err))
		writeError(w, r, h.log, err, MsgUserNotFound)
		return
	}

	_, err := h.users.Signup(r.Context(), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	h.metrics.RecordAuth("signup", outcomeFor(err))
	if err != nil {
		writeError(w, r, h.log, err, MsgUserNotFound)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: MsgUserCreated})
}

func (h *Handlers) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.metrics.RecordAuth("signin", outcomeFor(err))
		writeError(w, r, h.log, err, MsgSignupFirst)
		return
	}

	res, err := h.users.Signin(r.Context(), services.SigninInput{Email: req.Email, Password: req.Password})
	h.metrics.RecordAuth("signin", outcomeFor(err))
	if err != nil {
		writeError(w, r, h.log, err, MsgSignupFirst)
		return
	}

	writeJSON(w, http.StatusOK, signinResponse{
		Message: MsgSigninSuccessful,
		Token:   res.Token,
		User:    newUserView(res.User),
	})
}

// Dashboard is mounted behind AuthMiddleware.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, h.log, fmt.Errorf("dashboard reached without an authenticated subject"), MsgUserNotFound)
		return
	}

	p, err := h.users.Profile(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err, MsgUserNotFound)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Message: fmt.Sprintf("Welcome to the Dashboard, %s!", p.Name),
		User: dashboardUser{
			ID:     p.ID,
			Name:   p.Name,
			Email:  p.Email,
			Joined: p.CreatedAt,
		},
	})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.log.Warn(r.Context(), "storage unreachable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}
