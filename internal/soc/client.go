// Package soc is the gateway to the SOC "exportadados" HTTP API. It builds
// request payloads from stored credentials, issues the call, decodes the
// Latin-1 response body, and classifies the result into exactly one Outcome.
package soc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// DefaultBaseURL is the production export endpoint.
const DefaultBaseURL = "https://ws1.soc.com.br/WebSoc/exportadados"

// DefaultTimeout bounds a single export call. The gateway never retries; a
// failed call is a terminal outcome for the run.
const DefaultTimeout = 30 * time.Second

// decodeErrPrefixLen limits how much of an undecodable body is kept for
// diagnostics.
const decodeErrPrefixLen = 1000

// RawRecord is one flat provider record with uppercase/underscore keys.
// Values are kept loose; Str coerces them for mapping.
type RawRecord map[string]any

// Str returns the value under key rendered as a string, or "" when the key
// is absent or null. Integral numbers render without a decimal part.
func (r RawRecord) Str(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Outcome is the classified result of one export call.
type Outcome interface{ outcome() }

// TransportError is a non-200 HTTP response.
type TransportError struct {
	Status int
	Body   string
}

// DecodeError is a 200 response whose body is not the expected structure.
type DecodeError struct {
	BodyPrefix string
}

// ProviderError is a decoded error object reported by the provider.
type ProviderError struct {
	Message string
}

// Empty is a decoded record list with zero records.
type Empty struct{}

// Records is a non-empty record batch.
type Records []RawRecord

func (TransportError) outcome() {}
func (DecodeError) outcome()    {}
func (ProviderError) outcome()  {}
func (Empty) outcome()          {}
func (Records) outcome()        {}

// Client calls the export endpoint. Request parameters travel as a
// JSON-encoded value of the "parametro" query string key, and response
// bodies arrive in ISO 8859-1.
type Client struct {
	http    *http.Client
	baseURL string
	log     *zap.Logger
}

// NewClient constructs a gateway client. Zero timeout means DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		log:     log,
	}
}

// Fetch issues one export call and classifies the response. The returned
// error covers only request construction and network-level failures; every
// provider-visible condition is expressed as an Outcome.
func (c *Client) Fetch(ctx context.Context, params map[string]string) (Outcome, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	q := url.Values{"parametro": []string{string(payload)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call export endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	body, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		// Latin-1 decoding cannot actually fail (every byte maps), but
		// keep the branch honest.
		return nil, fmt.Errorf("decode charset: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Error("export request failed",
			zap.Int("status", resp.StatusCode),
		)
		return TransportError{Status: resp.StatusCode, Body: string(body)}, nil
	}

	return classify(body), nil
}

// classify maps a decoded 200 body to its Outcome.
func classify(body []byte) Outcome {
	var records []RawRecord
	if err := json.Unmarshal(body, &records); err == nil {
		if len(records) == 0 {
			return Empty{}
		}
		return Records(records)
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		if msg, ok := obj["Error"]; ok {
			return ProviderError{Message: fmt.Sprintf("%v", msg)}
		}
	}

	prefix := string(body)
	if len(prefix) > decodeErrPrefixLen {
		prefix = prefix[:decodeErrPrefixLen]
	}
	return DecodeError{BodyPrefix: prefix}
}
