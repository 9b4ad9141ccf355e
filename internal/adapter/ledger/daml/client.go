// Package daml implements the ledger gateway against a Daml HTTP JSON API.
package daml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"privylend-backend/internal/domain/ledger"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	tplCollateralAccount = "Main:CollateralAccount"
	tplLoan              = "Main:Loan"
	tplLoanRequest       = "Main:LoanRequest"
	tplLendingPool       = "Main:LendingPool"

	choiceRepay       = "Repay"
	choiceWithdraw    = "Withdraw"
	choiceMarkDefault = "MarkDefault"
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// StrictTags rejects records whose asset or status tag is not recognised
	// instead of mapping them to a default.
	StrictTags bool
}

type Client struct {
	baseURL    string
	token      string
	strict     bool
	httpClient *http.Client
	log        *logrus.Entry
}

var _ ledger.Gateway = (*Client)(nil)

func New(cfg Config, log *logrus.Entry) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		strict:     cfg.StrictTags,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithField("gateway", "daml"),
	}
}

type queryRequest struct {
	TemplateIDs []string       `json:"templateIds"`
	Query       map[string]any `json:"query,omitempty"`
}

type createRequest struct {
	TemplateID string         `json:"templateId"`
	Payload    map[string]any `json:"payload"`
}

type exerciseRequest struct {
	TemplateID string         `json:"templateId"`
	ContractID string         `json:"contractId"`
	Choice     string         `json:"choice"`
	Argument   map[string]any `json:"argument"`
}

// post sends one command and returns the "result" member of the response.
func (c *Client) post(ctx context.Context, path string, body any) (gjson.Result, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ledger.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: read response: %v", ledger.ErrConnectivity, err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return gjson.Result{}, fmt.Errorf("%w: %s %s", ledger.ErrConnectivity, path, resp.Status)
	case resp.StatusCode == http.StatusNotFound:
		return gjson.Result{}, fmt.Errorf("%w: %s", ledger.ErrNotFound, ledgerErrors(respBody, resp.Status))
	case resp.StatusCode >= http.StatusBadRequest:
		return gjson.Result{}, fmt.Errorf("%w: %s", ledger.ErrRejected, ledgerErrors(respBody, resp.Status))
	}

	if !gjson.ValidBytes(respBody) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON from %s", ledger.ErrRejected, path)
	}
	return gjson.GetBytes(respBody, "result"), nil
}

func ledgerErrors(body []byte, status string) string {
	var msgs []string
	gjson.GetBytes(body, "errors").ForEach(func(_, v gjson.Result) bool {
		msgs = append(msgs, v.String())
		return true
	})
	if len(msgs) == 0 {
		return status
	}
	return strings.Join(msgs, "; ")
}

func (c *Client) query(ctx context.Context, templateID string, filter map[string]any) ([]gjson.Result, error) {
	res, err := c.post(ctx, "/v1/query", queryRequest{TemplateIDs: []string{templateID}, Query: filter})
	if err != nil {
		return nil, err
	}
	return res.Array(), nil
}

func (c *Client) create(ctx context.Context, templateID string, payload map[string]any) (string, error) {
	res, err := c.post(ctx, "/v1/create", createRequest{TemplateID: templateID, Payload: payload})
	if err != nil {
		return "", err
	}
	cid := res.Get("contractId").String()
	if cid == "" {
		return "", fmt.Errorf("%w: create %s returned no contract id", ledger.ErrRejected, templateID)
	}
	return cid, nil
}

func (c *Client) exercise(ctx context.Context, templateID, contractID, choice string, arg map[string]any) error {
	if arg == nil {
		arg = map[string]any{}
	}
	_, err := c.post(ctx, "/v1/exercise", exerciseRequest{
		TemplateID: templateID,
		ContractID: contractID,
		Choice:     choice,
		Argument:   arg,
	})
	return err
}

// malformed turns a record decoding failure into a ledger rejection.
func malformed(contractID string, err error) error {
	if errors.Is(err, ledger.ErrRejected) {
		return err
	}
	return fmt.Errorf("%w: contract %s: %w", ledger.ErrRejected, contractID, err)
}
