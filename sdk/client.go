package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openalpha/pawfund/api/types"
	fundtypes "github.com/openalpha/pawfund/x/fund/types"
)

// APIError is a non-2xx response from the fund API
type APIError struct {
	Status int
	types.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Codespace != "" {
		return fmt.Sprintf("%d %s/%d: %s", e.Status, e.Codespace, e.Code, e.ErrorResponse.Error)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.ErrorResponse.Error)
}

// Client talks to the fund HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     string
}

// NewClient creates a client for the API at baseURL. signer is sent with
// every state-changing request.
func NewClient(baseURL, signer string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		signer:     signer,
	}
}

// WithHTTPClient replaces the underlying http.Client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		if c.signer == "" {
			return fmt.Errorf("signer required for %s %s", method, path)
		}
		req.Header.Set(types.SignerHeader, c.signer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr.ErrorResponse); err != nil {
			apiErr.ErrorResponse.Error = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func pageQuery(offset, limit uint64) string {
	q := url.Values{}
	q.Set("offset", strconv.FormatUint(offset, 10))
	if limit > 0 {
		q.Set("limit", strconv.FormatUint(limit, 10))
	}
	return "?" + q.Encode()
}

func fundPath(fundID string) string {
	return "/v1/funds/" + url.PathEscape(fundID)
}

// ============ Transactions ============

// CreateFund creates a fund owned by the signer
func (c *Client) CreateFund(ctx context.Context, req types.CreateFundRequest) (*fundtypes.MsgCreateFundResponse, error) {
	var resp fundtypes.MsgCreateFundResponse
	if err := c.do(ctx, http.MethodPost, "/v1/funds", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Deposit deposits base asset into a fund
func (c *Client) Deposit(ctx context.Context, fundID string, req types.DepositRequest) (*types.MintResponse, error) {
	var resp types.MintResponse
	if err := c.do(ctx, http.MethodPost, fundPath(fundID)+"/deposit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Redeem burns claim tokens for base asset
func (c *Client) Redeem(ctx context.Context, fundID string, req types.RedeemRequest) (*fundtypes.RedeemReceipt, error) {
	var resp fundtypes.RedeemReceipt
	if err := c.do(ctx, http.MethodPost, fundPath(fundID)+"/redeem", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rebalance runs one rebalancing leg. When the venue fails the returned
// *APIError carries the persisted record.
func (c *Client) Rebalance(ctx context.Context, fundID string, req types.RebalanceRequest) (*types.RebalanceResponse, error) {
	var resp types.RebalanceResponse
	if err := c.do(ctx, http.MethodPost, fundPath(fundID)+"/rebalance", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Drain sweeps a fund's holdings to destination
func (c *Client) Drain(ctx context.Context, fundID string, req types.DrainRequest) (*fundtypes.DrainReceipt, error) {
	var resp fundtypes.DrainReceipt
	if err := c.do(ctx, http.MethodPost, fundPath(fundID)+"/drain", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Faucet credits an address on daemons with the faucet enabled
func (c *Client) Faucet(ctx context.Context, req types.FaucetRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/faucet", req, nil)
}

// ============ Queries ============

// Fund returns a fund
func (c *Client) Fund(ctx context.Context, fundID string) (*types.FundResponse, error) {
	var resp types.FundResponse
	if err := c.do(ctx, http.MethodGet, fundPath(fundID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Funds returns a page of funds
func (c *Client) Funds(ctx context.Context, offset, limit uint64) (*types.PageResponse[types.FundResponse], error) {
	var resp types.PageResponse[types.FundResponse]
	if err := c.do(ctx, http.MethodGet, "/v1/funds"+pageQuery(offset, limit), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Deposits returns a page of a fund's deposit ledger
func (c *Client) Deposits(ctx context.Context, fundID string, offset, limit uint64) (*types.PageResponse[fundtypes.DepositRecord], error) {
	var resp types.PageResponse[fundtypes.DepositRecord]
	if err := c.do(ctx, http.MethodGet, fundPath(fundID)+"/deposits"+pageQuery(offset, limit), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rebalances returns a page of a fund's rebalance history
func (c *Client) Rebalances(ctx context.Context, fundID string, offset, limit uint64) (*types.PageResponse[types.RebalanceResponse], error) {
	var resp types.PageResponse[types.RebalanceResponse]
	if err := c.do(ctx, http.MethodGet, fundPath(fundID)+"/rebalances"+pageQuery(offset, limit), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EstimateDeposit quotes a deposit
func (c *Client) EstimateDeposit(ctx context.Context, fundID, amount, tvl string) (*types.MintResponse, error) {
	q := url.Values{}
	q.Set("amount", amount)
	if tvl != "" {
		q.Set("tvl", tvl)
	}
	var resp types.MintResponse
	if err := c.do(ctx, http.MethodGet, fundPath(fundID)+"/estimate/deposit?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClaimBalance returns holder's claim tokens in a fund
func (c *Client) ClaimBalance(ctx context.Context, fundID, holder string) (*types.BalanceResponse, error) {
	var resp types.BalanceResponse
	if err := c.do(ctx, http.MethodGet, fundPath(fundID)+"/holders/"+url.PathEscape(holder), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Balance returns addr's balance of denom
func (c *Client) Balance(ctx context.Context, addr, denom string) (*types.BalanceResponse, error) {
	var resp types.BalanceResponse
	path := "/v1/accounts/" + url.PathEscape(addr) + "/balances/" + url.PathEscape(denom)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
