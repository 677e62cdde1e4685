// Package rpc talks to a ledger node over JSON-RPC (HTTP) and its websocket
// pub/sub endpoint.
package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/pkg/errors"
)

const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// Error is a JSON-RPC error object.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Logs returns the program logs of a failed transaction simulation, if any.
func (e *Error) Logs() []string {
	var data struct {
		Logs []string `json:"logs"`
	}
	if len(e.Data) == 0 || json.Unmarshal(e.Data, &data) != nil {
		return nil
	}
	return data.Logs
}

func (e *Error) accountInUse() bool {
	if strings.Contains(e.Message, "already in use") {
		return true
	}
	for _, l := range e.Logs() {
		if strings.Contains(l, "already in use") {
			return true
		}
	}
	return false
}

type Client struct {
	endpoint   string
	commitment string
	http       *http.Client
	nextID     uint64
}

func NewClient(endpoint, commitment string) *Client {
	if commitment == "" {
		commitment = CommitmentConfirmed
	}
	return &Client{
		endpoint:   endpoint,
		commitment: commitment,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Commitment() string { return c.commitment }

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      atomic.AddUint64(&c.nextID, 1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return errors.Wrapf(err, "could not encode %s request", method)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "could not build %s request", method)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s request failed", method)
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "could not read %s response", method)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected http status %d: %s", method, resp.StatusCode, string(raw))
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return errors.Wrapf(err, "could not decode %s response", method)
	}
	if out.Error != nil {
		return out.Error
	}
	if result == nil {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(out.Result, result), "could not decode %s result", method)
}

type accountValue struct {
	Data       []string `json:"data"`
	Owner      string   `json:"owner"`
	Lamports   uint64   `json:"lamports"`
	Executable bool     `json:"executable"`
}

func (v *accountValue) decode(address ledger.Pubkey) (*ledger.Account, error) {
	if len(v.Data) == 0 {
		return nil, fmt.Errorf("account %s: missing data", address)
	}
	data, err := base64.StdEncoding.DecodeString(v.Data[0])
	if err != nil {
		return nil, errors.Wrapf(err, "account %s: bad data encoding", address)
	}
	owner, err := ledger.PubkeyFromString(v.Owner)
	if err != nil {
		return nil, err
	}
	return &ledger.Account{
		Address:    address,
		Owner:      owner,
		Lamports:   v.Lamports,
		Data:       data,
		Executable: v.Executable,
	}, nil
}

// GetAccount returns ledger.ErrAccountNotFound when nothing lives at address.
func (c *Client) GetAccount(ctx context.Context, address ledger.Pubkey) (*ledger.Account, error) {
	var result struct {
		Value *accountValue `json:"value"`
	}
	params := []interface{}{
		address.String(),
		map[string]string{"encoding": "base64", "commitment": c.commitment},
	}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, errors.Wrapf(ledger.ErrAccountNotFound, "%s", address)
	}
	return result.Value.decode(address)
}

func (c *Client) GetLatestBlockhash(ctx context.Context) (ledger.Hash, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	params := []interface{}{map[string]string{"commitment": c.commitment}}
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return ledger.Hash{}, err
	}
	return ledger.HashFromString(result.Value.Blockhash)
}

func (c *Client) MinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	var lamports uint64
	params := []interface{}{size, map[string]string{"commitment": c.commitment}}
	if err := c.call(ctx, "getMinimumBalanceForRentExemption", params, &lamports); err != nil {
		return 0, err
	}
	return lamports, nil
}

// SendTransaction submits with preflight checks. A preflight failure caused by
// an existing account is reported as ledger.ErrAccountInUse.
func (c *Client) SendTransaction(ctx context.Context, tx *ledger.Transaction) (ledger.Signature, error) {
	var sigStr string
	params := []interface{}{
		base64.StdEncoding.EncodeToString(tx.Serialize()),
		map[string]string{"encoding": "base64", "preflightCommitment": c.commitment},
	}
	if err := c.call(ctx, "sendTransaction", params, &sigStr); err != nil {
		var rpcErr *Error
		if errors.As(err, &rpcErr) && rpcErr.accountInUse() {
			return ledger.Signature{}, errors.Wrap(ledger.ErrAccountInUse, rpcErr.Error())
		}
		return ledger.Signature{}, err
	}
	if len(tx.Signatures) == 0 {
		return ledger.Signature{}, fmt.Errorf("unsigned transaction accepted as %s", sigStr)
	}
	return tx.Signatures[0], nil
}

type SignatureStatus struct {
	Slot               uint64          `json:"slot"`
	ConfirmationStatus string          `json:"confirmationStatus"`
	Err                json.RawMessage `json:"err"`
}

func (s *SignatureStatus) Failed() bool {
	return len(s.Err) > 0 && string(s.Err) != "null"
}

// Reached reports whether the status is at least as final as commitment.
func (s *SignatureStatus) Reached(commitment string) bool {
	rank := map[string]int{CommitmentProcessed: 0, CommitmentConfirmed: 1, CommitmentFinalized: 2}
	return rank[s.ConfirmationStatus] >= rank[commitment] && s.ConfirmationStatus != ""
}

// GetSignatureStatus returns nil when the node has not seen the signature yet.
func (c *Client) GetSignatureStatus(ctx context.Context, sig ledger.Signature) (*SignatureStatus, error) {
	var result struct {
		Value []*SignatureStatus `json:"value"`
	}
	params := []interface{}{[]string{sig.String()}}
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}
	if len(result.Value) == 0 {
		return nil, nil
	}
	return result.Value[0], nil
}
