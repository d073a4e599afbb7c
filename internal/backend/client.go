// Package backend is the client of the marketplace REST API. Every call goes through
// Client.do, which attaches the bearer token, decodes the {success,data,token,error}
// envelope and turns non-2xx responses into *Error values carrying the HTTP status.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.Backend) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

// Envelope is the response shape shared by every backend endpoint.
type Envelope struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Token   string          `json:"token,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Count   int             `json:"count,omitempty"`
	Success bool            `json:"success"`
}

type call struct {
	query          url.Values
	body           interface{}
	method         string
	path           string
	token          string
	idempotencyKey string
}

func (cl *Client) do(c context.Context, req call, out interface{}) (Envelope, error) {
	c, span := otel.Tracer.Start(
		c,
		"backend Client do",
		trace.WithAttributes(
			attribute.String(constants.KEY_BACKEND_METHOD, req.method),
			attribute.String(constants.KEY_BACKEND_PATH, req.path),
		),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "backend Client do").
		Str(constants.KEY_BACKEND_METHOD, req.method).
		Str(constants.KEY_BACKEND_PATH, req.path).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "encoding request body").Logger()
	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			err = fmt.Errorf("failed encoding request body with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return Envelope{}, err
		}
		body = bytes.NewReader(b)
	}

	target := cl.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "creating request").Logger()
	httpReq, err := http.NewRequestWithContext(c, req.method, target, body)
	if err != nil {
		err = fmt.Errorf("failed creating request to backend with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Envelope{}, err
	}
	httpReq.Header.Set(constants.HEADER_CONTENT_TYPE, constants.VALUE_APPLICATION_JSON)
	if requestID := log.RequestIDFromContext(c); requestID != "" {
		httpReq.Header.Set(constants.HEADER_REQUEST_ID, requestID)
	}
	if req.token != "" {
		httpReq.Header.Set(constants.HEADER_AUTHORIZATION, "Bearer "+req.token)
	}
	if req.idempotencyKey != "" {
		httpReq.Header.Set(constants.HEADER_IDEMPOTENCY, req.idempotencyKey)
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "sending request").Logger()
	logger.Debug().Msg("sending request to backend")
	resp, err := cl.httpClient.Do(httpReq)
	if err != nil {
		err = &UnavailableError{Cause: err}
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg("failed sending request to backend")
		return Envelope{}, err
	}
	defer resp.Body.Close()
	logger = logger.With().Int(constants.KEY_BACKEND_STATUS, resp.StatusCode).Logger()
	span.SetAttributes(attribute.Int(constants.KEY_BACKEND_STATUS, resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		err = &UnavailableError{Cause: err}
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg("failed reading backend response")
		return Envelope{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := newError(resp.StatusCode, raw)
		otel.RecordError(err, span)
		logger.Warn().Err(err).Msg("backend returned non-2xx status")
		return Envelope{}, err
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "decoding envelope").Logger()
	env := Envelope{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			err = &UnavailableError{Cause: fmt.Errorf("failed decoding envelope with error=%w", err)}
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg("failed decoding backend envelope")
			return Envelope{}, err
		}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			err = &UnavailableError{Cause: fmt.Errorf("failed decoding data with error=%w", err)}
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg("failed decoding backend data")
			return Envelope{}, err
		}
	}
	logger.Debug().Msg("received backend response")

	return env, nil
}
