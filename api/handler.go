// Package api exposes the ledger core over HTTP to the command/UI layer.
// Handlers translate the service error taxonomy to status codes and do no
// business logic of their own.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"bursar/service"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// Handler wires the service layer to HTTP endpoints.
type Handler struct {
	balances  service.BalanceService
	transfers service.TransferService
	wagers    service.WagerService
	markets   service.MarketService
	stats     service.StatsService
	resolver  service.IdentityResolver
}

// NewHandler returns a handler over the given services.
func NewHandler(
	balances service.BalanceService,
	transfers service.TransferService,
	wagers service.WagerService,
	markets service.MarketService,
	stats service.StatsService,
	resolver service.IdentityResolver,
) *Handler {
	return &Handler{
		balances:  balances,
		transfers: transfers,
		wagers:    wagers,
		markets:   markets,
		stats:     stats,
		resolver:  resolver,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the error taxonomy onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNotLinked):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		var rateErr *service.RateLimitedError
		if errors.As(err, &rateErr) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rateErr.RetryIn.Seconds())+1))
		}
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrCancelled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.WithError(err).Error("Unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// accountFromPath resolves the {account} path segment to a ledger account.
func (h *Handler) accountFromPath(r *http.Request) (string, error) {
	return h.resolver.Resolve(r.Context(), chi.URLParam(r, "account"))
}

func marketIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "marketID"), 10, 64)
}

// --- Balances and transfers ---

// GetBalance handles GET /accounts/{account}/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountFromPath(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	balance, err := h.balances.GetBalance(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account": accountID,
		"balance": balance,
	})
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
	Notes  string `json:"notes,omitempty"`
}

// PostTransfer handles POST /transfers
func (h *Handler) PostTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.transfers.Transfer(r.Context(), req.From, req.To, req.Amount, req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type adjustRequest struct {
	Amount int64  `json:"amount"`
	Notes  string `json:"notes,omitempty"`
}

// PostAdminSet handles POST /accounts/{account}/balance
func (h *Handler) PostAdminSet(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountFromPath(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req adjustRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prior, err := h.balances.AdminSet(r.Context(), accountID, req.Amount, req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account": accountID,
		"prior":   prior,
		"balance": req.Amount,
	})
}

// PostAdminAdjust handles POST /accounts/{account}/adjust
func (h *Handler) PostAdminAdjust(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountFromPath(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req adjustRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.balances.AdminAdjust(r.Context(), accountID, req.Amount, req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetHistory handles GET /accounts/{account}/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountFromPath(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	history, err := h.stats.GetHistory(r.Context(), accountID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account": accountID,
		"entries": history,
	})
}

// GetStats handles GET /accounts/{account}/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountFromPath(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	stats, err := h.stats.GetStats(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account": accountID,
		"stats":   stats,
	})
}

// GetTaxTotal handles GET /tax/total
func (h *Handler) GetTaxTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.stats.TotalTaxRevenue(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"total": total})
}

// --- Coinflip wagers ---

type proposeRequest struct {
	Challenger string `json:"challenger"`
	Opponent   string `json:"opponent,omitempty"`
	Amount     int64  `json:"amount"`
}

// PostWager handles POST /wagers
func (h *Handler) PostWager(w http.ResponseWriter, r *http.Request) {
	var req proposeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	challenge, err := h.wagers.Propose(r.Context(), req.Challenger, req.Opponent, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, challenge)
}

// GetWager handles GET /wagers/{wagerID}
func (h *Handler) GetWager(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.wagers.GetChallenge(r.Context(), chi.URLParam(r, "wagerID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challenge)
}

type acceptRequest struct {
	Acceptor string `json:"acceptor"`
}

// PostWagerAccept handles POST /wagers/{wagerID}/accept
func (h *Handler) PostWagerAccept(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.wagers.Accept(r.Context(), chi.URLParam(r, "wagerID"), req.Acceptor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type declineRequest struct {
	Decliner string `json:"decliner"`
}

// PostWagerDecline handles POST /wagers/{wagerID}/decline
func (h *Handler) PostWagerDecline(w http.ResponseWriter, r *http.Request) {
	var req declineRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.wagers.Decline(r.Context(), chi.URLParam(r, "wagerID"), req.Decliner); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "declined"})
}

// --- Prediction markets ---

type createMarketRequest struct {
	Question string `json:"question"`
	Creator  string `json:"creator"`
}

// PostMarket handles POST /markets
func (h *Handler) PostMarket(w http.ResponseWriter, r *http.Request) {
	var req createMarketRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	market, err := h.markets.Create(r.Context(), req.Question, req.Creator)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, market)
}

// GetMarket handles GET /markets/{marketID}
func (h *Handler) GetMarket(w http.ResponseWriter, r *http.Request) {
	marketID, err := marketIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	detail, err := h.markets.GetDetail(r.Context(), marketID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

type addOptionRequest struct {
	Text string `json:"text"`
}

// PostMarketOption handles POST /markets/{marketID}/options
func (h *Handler) PostMarketOption(w http.ResponseWriter, r *http.Request) {
	marketID, err := marketIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req addOptionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	option, err := h.markets.AddOption(r.Context(), marketID, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, option)
}

// PostMarketOpen handles POST /markets/{marketID}/open
func (h *Handler) PostMarketOpen(w http.ResponseWriter, r *http.Request) {
	marketID, err := marketIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	market, err := h.markets.Open(r.Context(), marketID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, market)
}

type placeBetRequest struct {
	Account string `json:"account"`
	Option  int    `json:"option"`
	Amount  int64  `json:"amount"`
}

// PostMarketBet handles POST /markets/{marketID}/bets
func (h *Handler) PostMarketBet(w http.ResponseWriter, r *http.Request) {
	marketID, err := marketIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req placeBetRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	accountID, err := h.resolver.Resolve(r.Context(), req.Account)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	bet, err := h.markets.PlaceBet(r.Context(), marketID, accountID, req.Option, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, bet)
}

type resolveRequest struct {
	Option int `json:"option"`
}

// PostMarketResolve handles POST /markets/{marketID}/resolve
func (h *Handler) PostMarketResolve(w http.ResponseWriter, r *http.Request) {
	marketID, err := marketIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req resolveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.markets.Resolve(r.Context(), marketID, req.Option)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// PostMarketCancel handles POST /markets/{marketID}/cancel
func (h *Handler) PostMarketCancel(w http.ResponseWriter, r *http.Request) {
	marketID, err := marketIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	result, err := h.markets.Cancel(r.Context(), marketID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
