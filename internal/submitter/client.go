// Package submitter posts folder batches to the ingestion endpoint and
// interprets its tri-state response.
package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"cardflow/txn-uploader/internal/ingesterror"
	"cardflow/txn-uploader/internal/logging"
	"cardflow/txn-uploader/internal/models"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Config configures the submission client.
type Config struct {
	// Endpoint is the full URL batches are posted to.
	Endpoint string

	// Timeout for one request (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond paces submissions; 0 means unlimited.
	RequestsPerSecond float64

	// UserAgent string (default: "txn-uploader/1.0").
	UserAgent string

	// DryRun builds and logs the request without sending it.
	DryRun bool

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper
}

// maxBodyLog bounds the response text kept in errors.
const maxBodyLog = 512

// Client submits batches, one request per call.
type Client struct {
	config      Config
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      logging.Logger
}

// NewClient creates a new submission client.
func NewClient(config Config, logger logging.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "txn-uploader/1.0"
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
		},
		rateLimiter: rate.NewLimiter(limit, 1),
		logger:      logger,
	}
}

type payload struct {
	Transactions []models.Transaction `json:"transactions"`
}

// Submit sends records with the given bearer credential. An empty batch is
// reported as skipped without a request. Failures are carried in the
// outcome; Submit never panics or returns an error.
func (c *Client) Submit(ctx context.Context, records []models.Transaction, credential string) models.SubmissionOutcome {
	if len(records) == 0 {
		return models.SubmissionOutcome{Kind: models.OutcomeSkipped}
	}

	requestID := uuid.New().String()
	log := c.logger.WithFields(
		logging.F(logging.FieldRequestID, requestID),
		logging.F(logging.FieldEndpoint, c.config.Endpoint),
		logging.F(logging.FieldCount, len(records)))

	body, err := json.Marshal(payload{Transactions: records})
	if err != nil {
		return c.transportFailure(log, requestID, 0, "", fmt.Errorf("encode payload: %w", err))
	}

	if c.config.DryRun {
		log.Info("Dry run, batch not sent", logging.F("bytes", len(body)))
		return models.SubmissionOutcome{Kind: models.OutcomeDryRun, RequestID: requestID}
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return c.transportFailure(log, requestID, 0, "", fmt.Errorf("rate limiter: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return c.transportFailure(log, requestID, 0, "", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("X-Request-ID", requestID)
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportFailure(log, requestID, 0, "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportFailure(log, requestID, resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}
	log.Debug("Submission response received",
		logging.F(logging.FieldHTTPStatus, resp.StatusCode),
		logging.F(logging.FieldDuration, time.Since(start).String()))

	outcome, warning, err := interpret(respBody, records)
	if warning != "" {
		log.Warn(warning, logging.F(logging.FieldHTTPStatus, resp.StatusCode))
	}
	outcome.RequestID = requestID
	outcome.HTTPStatus = resp.StatusCode

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if err != nil {
		var protoErr *ingesterror.SubmissionProtocolError
		if !success && (!errors.As(err, &protoErr) || protoErr.Status == nil) {
			return c.transportFailure(log, requestID, resp.StatusCode, truncate(string(respBody)), nil)
		}
		outcome.Kind = models.OutcomeProtocolError
		outcome.Err = err
		log.WithError(err).Error("Unexpected submission response",
			logging.F(logging.FieldHTTPStatus, resp.StatusCode))
		return outcome
	}

	log.Info("Batch submitted",
		logging.F(logging.FieldStatus, string(outcome.Kind)),
		logging.F("accepted", len(outcome.Accepted)),
		logging.F("rejected", len(outcome.Rejected)),
		logging.F("duplicates", len(outcome.AlreadyExists)))
	return outcome
}

func (c *Client) transportFailure(log logging.Logger, requestID string, status int, body string, err error) models.SubmissionOutcome {
	terr := &ingesterror.SubmissionTransportError{
		Endpoint:   c.config.Endpoint,
		HTTPStatus: status,
		Body:       body,
		Err:        err,
	}
	log.WithError(terr).Error("Submission failed")
	return models.SubmissionOutcome{
		Kind:       models.OutcomeTransportError,
		HTTPStatus: status,
		RequestID:  requestID,
		Err:        terr,
	}
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxBodyLog {
		return s[:maxBodyLog] + "..."
	}
	return s
}

// envelope is the response shape of the ingestion endpoint.
type envelope struct {
	Status json.RawMessage            `json:"status"`
	Result map[string]json.RawMessage `json:"result"`
	Errors map[string]json.RawMessage `json:"errors"`
}

// Interpret classifies a response body. Status 0 rejects the whole batch,
// 1 and 2 report per-item results under result.success and
// result.successes respectively. Anything else is a protocol error.
func Interpret(body []byte, records []models.Transaction) (models.SubmissionOutcome, error) {
	outcome, _, err := interpret(body, records)
	return outcome, err
}

// interpret also returns a warning when a status 1 or 2 response lists its
// accepted items under the other status's key. Those items are not counted.
func interpret(body []byte, records []models.Transaction) (models.SubmissionOutcome, string, error) {
	outcome, err := classify(body, records)
	if err != nil || outcome.Status == nil {
		return outcome, "", err
	}

	var env envelope
	_ = json.Unmarshal(body, &env)
	key, other := successKeys(*outcome.Status)
	if key == "" {
		return outcome, "", nil
	}
	if _, ok := env.Result[key]; !ok {
		if _, misplaced := env.Result[other]; misplaced {
			return outcome, fmt.Sprintf("Response status %d lists accepted items under result.%s instead of result.%s, counting none as accepted",
				*outcome.Status, other, key), nil
		}
	}
	return outcome, "", nil
}

// successKeys returns the result key holding accepted items for status and
// the key the other success status uses.
func successKeys(status int) (key, other string) {
	switch status {
	case 1:
		return "success", "successes"
	case 2:
		return "successes", "success"
	}
	return "", ""
}

func classify(body []byte, records []models.Transaction) (models.SubmissionOutcome, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return models.SubmissionOutcome{}, &ingesterror.SubmissionProtocolError{Msg: "response is not a JSON object: " + truncate(string(body))}
	}
	if len(env.Status) == 0 {
		return models.SubmissionOutcome{}, &ingesterror.SubmissionProtocolError{Msg: "response has no status"}
	}

	status, ok := parseStatus(env.Status)
	if !ok {
		return models.SubmissionOutcome{}, &ingesterror.SubmissionProtocolError{Msg: "status is not an integer: " + string(env.Status)}
	}
	outcome := models.SubmissionOutcome{Status: &status}

	switch status {
	case 0:
		outcome.Kind = models.OutcomeRejected
		outcome.Messages = itemList(env.Errors["transactions"])
		for _, tx := range records {
			outcome.Rejected = append(outcome.Rejected, recordLabel(tx))
		}
		return outcome, nil
	case 1, 2:
		key, _ := successKeys(status)
		if env.Result == nil {
			return outcome, &ingesterror.SubmissionProtocolError{Status: &status, Msg: "response has no result object"}
		}
		outcome.Accepted = itemList(env.Result[key])
		outcome.Rejected = itemList(env.Result["fail"])
		outcome.AlreadyExists = itemList(env.Result["already_exist"])
		outcome.Kind = models.OutcomeAccepted
		if len(outcome.Accepted) == 0 && len(outcome.Rejected) > 0 {
			outcome.Kind = models.OutcomeRejected
		}
		return outcome, nil
	default:
		return outcome, &ingesterror.SubmissionProtocolError{Status: &status, Msg: "unknown status"}
	}
}

func parseStatus(raw json.RawMessage) (int, bool) {
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		if v, err := number.Int64(); err == nil {
			return int(v), true
		}
		if f, err := number.Float64(); err == nil && f == math.Trunc(f) {
			return int(f), true
		}
		return 0, false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if v, err := json.Number(strings.TrimSpace(text)).Int64(); err == nil {
			return int(v), true
		}
	}
	return 0, false
}

// itemList flattens a response list. Items may be strings, numbers or
// objects; objects are labelled by their id_transaction when present. A
// single non-list value is treated as a one-item list.
func itemList(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		items = []json.RawMessage{raw}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, itemLabel(item))
	}
	return out
}

func itemLabel(item json.RawMessage) string {
	var text string
	if err := json.Unmarshal(item, &text); err == nil {
		return text
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err == nil {
		for _, key := range []string{"id_transaction", "message", "error"} {
			if v, ok := fields[key]; ok {
				var s string
				if err := json.Unmarshal(v, &s); err == nil {
					return s
				}
				return string(v)
			}
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, item); err == nil {
		return compact.String()
	}
	return string(item)
}

func recordLabel(tx models.Transaction) string {
	if id := tx.TransactionID(); id != "" {
		return id
	}
	return tx.CardNumber
}
