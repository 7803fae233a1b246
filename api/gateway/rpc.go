package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sparklabs/ideavault/api/metrics"
	"github.com/sparklabs/ideavault/api/vault"
)

// DefaultRequestTimeout bounds a single gateway call.
const DefaultRequestTimeout = 10 * time.Second

// RPC talks JSON-RPC 2.0 to an external token service that holds the actual
// balances. The engine calls it inside open database transactions, so every
// request carries a hard timeout to keep row locks short.
type RPC struct {
	url    string
	client *http.Client
	nextID atomic.Int64
}

// NewRPC builds a client for the token service at url.
func NewRPC(url string) *RPC {
	return &RPC{
		url:    url,
		client: &http.Client{Timeout: DefaultRequestTimeout},
	}
}

// rpcRequest represents a JSON-RPC 2.0 request
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// rpcResponse represents a JSON-RPC 2.0 response
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ensureAccountParams struct {
	Mint  vault.Identity `json:"mint"`
	Owner vault.Identity `json:"owner"`
}

type ensureAccountResult struct {
	Account vault.Identity `json:"account"`
}

type balanceParams struct {
	Mint    vault.Identity `json:"mint"`
	Account vault.Identity `json:"account"`
}

type balanceResult struct {
	Amount uint64 `json:"amount"`
}

type transferParams struct {
	Mint      vault.Identity `json:"mint"`
	From      vault.Identity `json:"from"`
	To        vault.Identity `json:"to"`
	Amount    uint64         `json:"amount"`
	Owner     vault.Identity `json:"owner,omitempty"`
	ProofSeed string         `json:"proof_seed,omitempty"`
	ProofBump uint8          `json:"proof_bump,omitempty"`
}

func (r *RPC) EnsureAccount(ctx context.Context, mint, owner vault.Identity) (vault.Identity, error) {
	var result ensureAccountResult
	err := r.call(ctx, "token.ensureAccount", ensureAccountParams{Mint: mint, Owner: owner}, &result)
	if err != nil {
		return "", err
	}
	return result.Account, nil
}

func (r *RPC) Balance(ctx context.Context, mint, account vault.Identity) (uint64, error) {
	var result balanceResult
	err := r.call(ctx, "token.getBalance", balanceParams{Mint: mint, Account: account}, &result)
	if err != nil {
		return 0, err
	}
	return result.Amount, nil
}

func (r *RPC) Transfer(ctx context.Context, mint, from, to vault.Identity, amount uint64, auth vault.Authorization) error {
	params := transferParams{
		Mint:   mint,
		From:   from,
		To:     to,
		Amount: amount,
		Owner:  auth.Owner,
	}
	if auth.Proof != nil {
		params.ProofSeed = auth.Proof.Seed.Hex()
		params.ProofBump = auth.Proof.Bump
	}
	return r.call(ctx, "token.transfer", params, nil)
}

func (r *RPC) call(ctx context.Context, method string, params, result any) (err error) {
	start := time.Now()
	defer func() { metrics.RecordGatewayRequest(method, time.Since(start), err) }()

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      r.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return fmt.Errorf("RPC error: %s (code %d)", rpcResp.Error.Message, rpcResp.Error.Code)
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("failed to unmarshal %s result: %w", method, err)
		}
	}
	return nil
}
