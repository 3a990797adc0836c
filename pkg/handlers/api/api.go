package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
	"github.com/lunemec/eve-ledger/pkg/services/accountant"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var errNoData = errors.New("no data for this period")

// badRequest marks errors caused by the request itself.
type badRequest struct {
	err error
}

func (e badRequest) Error() string {
	return e.err.Error()
}

type apiHandler struct {
	log           *zap.Logger
	accountantSvc accountant.Service
	now           func() time.Time
}

func New(log *zap.Logger, accountantSvc accountant.Service) *apiHandler {
	return &apiHandler{
		log:           log,
		accountantSvc: accountantSvc,
		now:           time.Now,
	}
}

// Routes returns the read-only report API.
func (h *apiHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequest)

	r.Get("/ledger/{scope}/{id}", h.ledger)
	r.Get("/billboard/{scope}/{id}", h.billboard)
	return r
}

func (h *apiHandler) ledger(w http.ResponseWriter, r *http.Request) {
	scope, id, period, err := h.parseRequest(r)
	if err != nil {
		h.error(w, r, err)
		return
	}

	var result *aggregate.Ledger
	switch scope {
	case aggregate.LedgerScopeCharacter:
		result, err = h.accountantSvc.CharacterLedger(r.Context(), period, []entity.CharacterID{entity.CharacterID(id)})
	case aggregate.LedgerScopeCorporation:
		result, err = h.accountantSvc.CorporationLedger(r.Context(), period, []entity.CorporationID{entity.CorporationID(id)})
	case aggregate.LedgerScopeAlliance:
		result, err = h.accountantSvc.AllianceLedger(r.Context(), period, entity.AllianceID(id))
	}
	if err != nil {
		h.error(w, r, err)
		return
	}
	// A ledger of cost only entities has no rows but still a grand total.
	if result == nil || (len(result.Rows) == 0 && result.Total.IsZero()) {
		h.error(w, r, errNoData)
		return
	}
	h.json(w, http.StatusOK, result)
}

func (h *apiHandler) billboard(w http.ResponseWriter, r *http.Request) {
	scope, id, period, err := h.parseRequest(r)
	if err != nil {
		h.error(w, r, err)
		return
	}
	board, err := h.accountantSvc.Billboard(r.Context(), ledger.BillboardRequest{
		Scope:  scope,
		ID:     id,
		Period: period,
	})
	if err != nil {
		h.error(w, r, err)
		return
	}
	if board == nil {
		h.error(w, r, errNoData)
		return
	}
	h.json(w, http.StatusOK, board)
}

func (h *apiHandler) parseRequest(r *http.Request) (aggregate.LedgerScope, entity.EntityID, aggregate.Period, error) {
	scope := aggregate.LedgerScope(chi.URLParam(r, "scope"))
	switch scope {
	case aggregate.LedgerScopeCharacter, aggregate.LedgerScopeCorporation, aggregate.LedgerScopeAlliance:
	default:
		return "", 0, aggregate.Period{}, badRequest{errors.Errorf("unknown scope: %q", scope)}
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil || id <= 0 {
		return "", 0, aggregate.Period{}, badRequest{errors.Errorf("invalid id: %q", chi.URLParam(r, "id"))}
	}

	period, err := parsePeriod(r, h.now())
	if err != nil {
		return "", 0, aggregate.Period{}, badRequest{err}
	}
	return scope, entity.EntityID(id), period, nil
}

// parsePeriod reads year, month and day query parameters. Without any of
// them the current month is used.
func parsePeriod(r *http.Request, now time.Time) (aggregate.Period, error) {
	query := r.URL.Query()
	if query.Get("year") == "" && query.Get("month") == "" && query.Get("day") == "" {
		return aggregate.CurrentMonth(now), nil
	}
	if query.Get("year") == "" {
		return aggregate.Period{}, errors.New("month and day require year")
	}

	var (
		period aggregate.Period
		err    error
	)
	period.Year, err = strconv.Atoi(query.Get("year"))
	if err != nil {
		return period, errors.Errorf("invalid year: %q", query.Get("year"))
	}
	if month := query.Get("month"); month != "" {
		m, err := strconv.Atoi(month)
		if err != nil {
			return period, errors.Errorf("invalid month: %q", month)
		}
		period.Month = time.Month(m)
	}
	if day := query.Get("day"); day != "" {
		period.Day, err = strconv.Atoi(day)
		if err != nil {
			return period, errors.Errorf("invalid day: %q", day)
		}
	}
	return period, period.Validate()
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *apiHandler) error(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status = http.StatusInternalServerError
		bad    badRequest
	)
	switch {
	case errors.As(err, &bad):
		status = http.StatusBadRequest
	case errors.Is(err, errNoData):
		status = http.StatusNotFound
	default:
		h.log.Error("error serving report",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	h.json(w, status, errorResponse{Error: err.Error()})
}

func (h *apiHandler) json(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		h.log.Warn("error encoding response", zap.Error(err))
	}
}

func (h *apiHandler) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}
