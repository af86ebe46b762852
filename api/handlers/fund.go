package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	"github.com/gorilla/mux"

	"github.com/openalpha/pawfund/api/types"
	custodytypes "github.com/openalpha/pawfund/x/custody/types"
	fundtypes "github.com/openalpha/pawfund/x/fund/types"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// FundHandler handles fund API requests
type FundHandler struct {
	service      types.FundService
	enableFaucet bool
}

// NewFundHandler creates a new FundHandler
func NewFundHandler(service types.FundService, enableFaucet bool) *FundHandler {
	return &FundHandler{service: service, enableFaucet: enableFaucet}
}

// RegisterRoutes registers fund API routes
func (h *FundHandler) RegisterRoutes(r *mux.Router) {
	// Fund routes
	r.HandleFunc("/v1/funds", h.CreateFund).Methods("POST")
	r.HandleFunc("/v1/funds", h.GetFunds).Methods("GET")
	r.HandleFunc("/v1/funds/{id}", h.GetFund).Methods("GET")

	// Transaction routes
	r.HandleFunc("/v1/funds/{id}/deposit", h.Deposit).Methods("POST")
	r.HandleFunc("/v1/funds/{id}/redeem", h.Redeem).Methods("POST")
	r.HandleFunc("/v1/funds/{id}/rebalance", h.Rebalance).Methods("POST")
	r.HandleFunc("/v1/funds/{id}/drain", h.Drain).Methods("POST")

	// History and estimation routes
	r.HandleFunc("/v1/funds/{id}/deposits", h.GetDeposits).Methods("GET")
	r.HandleFunc("/v1/funds/{id}/rebalances", h.GetRebalances).Methods("GET")
	r.HandleFunc("/v1/funds/{id}/estimate/deposit", h.EstimateDeposit).Methods("GET")
	r.HandleFunc("/v1/funds/{id}/holders/{addr}", h.GetHolderBalance).Methods("GET")

	// Account routes
	r.HandleFunc("/v1/accounts/{addr}/balances/{denom}", h.GetBalance).Methods("GET")
	r.HandleFunc("/v1/faucet", h.Faucet).Methods("POST")
}

// fundToResponse converts a Fund to FundResponse
func fundToResponse(f *fundtypes.Fund) types.FundResponse {
	return types.FundResponse{
		ID:               f.ID,
		Creator:          f.Creator,
		Manager:          f.Manager,
		Name:             f.Name,
		Description:      f.Description,
		ClaimDenom:       f.ClaimDenom,
		Status:           f.Status.String(),
		Vault:            fundtypes.VaultAddress(f.ID),
		InvestThreshold:  formatUint(f.InvestThreshold),
		TotalDeposited:   formatUint(f.TotalDeposited),
		AvailableCapital: formatUint(f.AvailableCapital),
		ClaimSupply:      formatUint(f.ClaimSupply),
		DepositCount:     f.DepositCount,
		RebalanceCount:   f.RebalanceCount,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
		DrainedAt:        f.DrainedAt,
	}
}

func rebalanceToResponse(r *fundtypes.RebalanceRecord) *types.RebalanceResponse {
	return &types.RebalanceResponse{
		FundID:     r.FundID,
		Sequence:   r.Sequence,
		Direction:  r.Direction.String(),
		Requested:  formatUint(r.Requested),
		Committed:  formatUint(r.Committed),
		Routed:     formatUint(r.Routed),
		Returned:   formatUint(r.Returned),
		Settled:    r.Settled,
		VenueError: r.VenueError,
		Timestamp:  r.Timestamp,
	}
}

func mintToResponse(m *fundtypes.MintReceipt) types.MintResponse {
	return types.MintResponse{
		FundID:     m.FundID,
		Depositor:  m.Depositor,
		Gross:      formatUint(m.Gross),
		Net:        formatUint(m.Net),
		ManagerFee: formatUint(m.ManagerFee),
		OwnerFee:   formatUint(m.OwnerFee),
		Minted:     formatUint(m.Minted),
		Status:     m.Status.String(),
	}
}

// CreateFund handles POST /v1/funds
func (h *FundHandler) CreateFund(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	var req types.CreateFundRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.CreateFund(r.Context(), &fundtypes.MsgCreateFund{
		Creator:         signer,
		Manager:         req.Manager,
		FundID:          req.FundID,
		Name:            req.Name,
		Description:     req.Description,
		SeedAmount:      req.SeedAmount,
		InvestThreshold: req.InvestThreshold,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GetFunds handles GET /v1/funds
func (h *FundHandler) GetFunds(w http.ResponseWriter, r *http.Request) {
	offset, limit, ok := parsePage(w, r)
	if !ok {
		return
	}
	funds, total, err := h.service.GetFunds(r.Context(), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]types.FundResponse, 0, len(funds))
	for _, f := range funds {
		items = append(items, fundToResponse(f))
	}
	writeJSON(w, http.StatusOK, types.PageResponse[types.FundResponse]{Items: items, Total: total, Offset: offset, Limit: limit})
}

// GetFund handles GET /v1/funds/{id}
func (h *FundHandler) GetFund(w http.ResponseWriter, r *http.Request) {
	fund, err := h.service.GetFund(r.Context(), pathVar(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fundToResponse(fund))
}

// Deposit handles POST /v1/funds/{id}/deposit
func (h *FundHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	var req types.DepositRequest
	if !decodeBody(w, r, &req) {
		return
	}

	receipt, err := h.service.Deposit(r.Context(), &fundtypes.MsgDeposit{
		Depositor:   signer,
		FundID:      pathVar(r, "id"),
		Amount:      req.Amount,
		TVLSnapshot: req.TVLSnapshot,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mintToResponse(receipt))
}

// Redeem handles POST /v1/funds/{id}/redeem
func (h *FundHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	var req types.RedeemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	receipt, err := h.service.Redeem(r.Context(), &fundtypes.MsgRedeem{
		Redeemer:    signer,
		FundID:      pathVar(r, "id"),
		ClaimAmount: req.ClaimAmount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// Rebalance handles POST /v1/funds/{id}/rebalance. A leg that reached the
// venue and failed there is reported with its persisted record.
func (h *FundHandler) Rebalance(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	var req types.RebalanceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	record, err := h.service.Rebalance(r.Context(), &fundtypes.MsgRebalance{
		Manager:      signer,
		FundID:       pathVar(r, "id"),
		Direction:    req.Direction,
		Amount:       req.Amount,
		VenuePayload: req.VenuePayload,
	})
	if err != nil {
		resp := errorResponse(err)
		if record != nil {
			resp.Record = rebalanceToResponse(record)
		}
		writeJSON(w, statusFor(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, rebalanceToResponse(record))
}

// Drain handles POST /v1/funds/{id}/drain
func (h *FundHandler) Drain(w http.ResponseWriter, r *http.Request) {
	signer, ok := requireSigner(w, r)
	if !ok {
		return
	}
	var req types.DrainRequest
	if !decodeBody(w, r, &req) {
		return
	}

	receipt, err := h.service.DrainFund(r.Context(), &fundtypes.MsgDrainFund{
		Authority:   signer,
		FundID:      pathVar(r, "id"),
		Destination: req.Destination,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// GetDeposits handles GET /v1/funds/{id}/deposits
func (h *FundHandler) GetDeposits(w http.ResponseWriter, r *http.Request) {
	offset, limit, ok := parsePage(w, r)
	if !ok {
		return
	}
	deposits, total, err := h.service.GetDeposits(r.Context(), pathVar(r, "id"), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.PageResponse[*fundtypes.DepositRecord]{Items: deposits, Total: total, Offset: offset, Limit: limit})
}

// GetRebalances handles GET /v1/funds/{id}/rebalances
func (h *FundHandler) GetRebalances(w http.ResponseWriter, r *http.Request) {
	offset, limit, ok := parsePage(w, r)
	if !ok {
		return
	}
	records, total, err := h.service.GetRebalances(r.Context(), pathVar(r, "id"), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]*types.RebalanceResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, rebalanceToResponse(rec))
	}
	writeJSON(w, http.StatusOK, types.PageResponse[*types.RebalanceResponse]{Items: items, Total: total, Offset: offset, Limit: limit})
}

// EstimateDeposit handles GET /v1/funds/{id}/estimate/deposit?amount=&tvl=
func (h *FundHandler) EstimateDeposit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := fundtypes.ParseAmount(q.Get("amount"))
	if err != nil {
		writeError(w, err)
		return
	}
	tvl, err := fundtypes.ParseAmount(q.Get("tvl"))
	if err != nil {
		writeError(w, err)
		return
	}

	estimate, err := h.service.EstimateDeposit(r.Context(), pathVar(r, "id"), amount, tvl)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mintToResponse(estimate))
}

// GetHolderBalance handles GET /v1/funds/{id}/holders/{addr}
func (h *FundHandler) GetHolderBalance(w http.ResponseWriter, r *http.Request) {
	fundID, holder := pathVar(r, "id"), pathVar(r, "addr")
	fund, err := h.service.GetFund(r.Context(), fundID)
	if err != nil {
		writeError(w, err)
		return
	}
	bal, err := h.service.GetClaimBalance(r.Context(), fund.ID, holder)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.BalanceResponse{Address: holder, Denom: fund.ClaimDenom, Amount: formatUint(bal)})
}

// GetBalance handles GET /v1/accounts/{addr}/balances/{denom}. Addresses and
// denoms that contain slashes are passed URL-encoded.
func (h *FundHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	addr, denom := pathVar(r, "addr"), pathVar(r, "denom")
	bal, err := h.service.GetBalance(r.Context(), addr, denom)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.BalanceResponse{Address: addr, Denom: denom, Amount: formatUint(bal)})
}

// Faucet handles POST /v1/faucet when enabled
func (h *FundHandler) Faucet(w http.ResponseWriter, r *http.Request) {
	if !h.enableFaucet {
		writeJSON(w, http.StatusNotFound, types.ErrorResponse{Error: "faucet disabled"})
		return
	}
	var req types.FaucetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := fundtypes.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.service.Faucet(r.Context(), req.Address, req.Denom, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.BalanceResponse{Address: req.Address, Denom: req.Denom, Amount: req.Amount})
}

// ============ Helpers ============

// pathVar returns a route variable. Routers built with UseEncodedPath leave
// variables escaped.
func pathVar(r *http.Request, name string) string {
	v := mux.Vars(r)[name]
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func requireSigner(w http.ResponseWriter, r *http.Request) (string, bool) {
	signer := r.Header.Get(types.SignerHeader)
	if signer == "" {
		writeJSON(w, http.StatusUnauthorized, types.ErrorResponse{Error: "missing " + types.SignerHeader + " header"})
		return "", false
	}
	return signer, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func parsePage(w http.ResponseWriter, r *http.Request) (offset, limit uint64, ok bool) {
	q := r.URL.Query()
	limit = defaultPageLimit
	var err error
	if s := q.Get("offset"); s != "" {
		if offset, err = strconv.ParseUint(s, 10, 64); err != nil {
			writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "invalid offset"})
			return 0, 0, false
		}
	}
	if s := q.Get("limit"); s != "" {
		if limit, err = strconv.ParseUint(s, 10, 64); err != nil || limit == 0 {
			writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "invalid limit"})
			return 0, 0, false
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return offset, limit, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse(err))
}

func errorResponse(err error) *types.ErrorResponse {
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	return &types.ErrorResponse{Error: err.Error(), Codespace: codespace, Code: code}
}

// statusFor maps registered module errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, fundtypes.ErrFundNotFound),
		errors.Is(err, custodytypes.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, fundtypes.ErrUnauthorized),
		errors.Is(err, fundtypes.ErrIncorrectOwner),
		errors.Is(err, custodytypes.ErrUnauthorized),
		errors.Is(err, custodytypes.ErrIncorrectOwner):
		return http.StatusForbidden
	case errors.Is(err, fundtypes.ErrFundExists),
		errors.Is(err, fundtypes.ErrFundExpired),
		errors.Is(err, fundtypes.ErrInvalidFundStatus):
		return http.StatusConflict
	case errors.Is(err, fundtypes.ErrInsufficientFunds),
		errors.Is(err, fundtypes.ErrInsufficientTokens),
		errors.Is(err, fundtypes.ErrDepositTooSmall),
		errors.Is(err, fundtypes.ErrDivisionByZero),
		errors.Is(err, fundtypes.ErrArithmeticOverflow),
		errors.Is(err, custodytypes.ErrInsufficientBalance),
		errors.Is(err, custodytypes.ErrOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, fundtypes.ErrExternalVenueFailure):
		return http.StatusBadGateway
	case errors.Is(err, fundtypes.ErrInvalidRequest),
		errors.Is(err, fundtypes.ErrInvalidLayout),
		errors.Is(err, custodytypes.ErrInvalidAddress),
		errors.Is(err, custodytypes.ErrInvalidAmount),
		errors.Is(err, custodytypes.ErrUnknownDenom),
		errors.Is(err, custodytypes.ErrDenomMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
