package evote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewGateway builds the remote procedure gateway
func NewGateway(options GatewayOptions) *Gateway {
	g := &Gateway{
		baseURL:     strings.TrimRight(options.BaseURL, "/"),
		httpClient:  options.HTTPClient,
		userAgent:   options.UserAgent,
		tokenSource: options.TokenSource,
		logger:      nopLoggerIfNil(options.Logger),
		metrics:     options.metrics,
	}
	if g.baseURL == "" {
		g.baseURL = DefaultBaseURL
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{}
	}
	if g.userAgent == "" {
		g.userAgent = defaultUserAgent
	}
	if g.tokenSource == nil {
		g.tokenSource = func() string { return "" }
	}
	if g.metrics == nil {
		g.metrics = newMetrics("", nil)
	}
	return g
}

// BaseURL returns the address of the remote service
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// formField is a single multipart value
type formField struct {
	name  string
	value string
}

// Upload is a file sent with a multipart request
type Upload struct {
	// Filename sent to the remote service
	Filename string

	// Content of the file
	Content io.Reader
}

// formFile is a single multipart file
type formFile struct {
	name   string
	upload *Upload
}

// callJSON issues a request with an optional JSON body and decodes
// the data of the success envelope into out when not nil
func (g *Gateway) callJSON(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return newError(KindValidation, op, "fail to encode request", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := g.newRequest(ctx, op, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.roundTrip(op, req)
	if err != nil {
		return err
	}
	return decodeData(op, resp, out)
}

// callMultipart issues a multipart request carrying fields and files.
// Failures are normalized exactly like callJSON
func (g *Gateway) callMultipart(ctx context.Context, op, method, path string, fields []formField, files []formFile, out any) error {
	buffer := new(bytes.Buffer)
	writer := multipart.NewWriter(buffer)
	for _, field := range fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return newError(KindValidation, op, "fail to encode form", err)
		}
	}
	for _, file := range files {
		if file.upload == nil || file.upload.Content == nil {
			continue
		}
		part, err := writer.CreateFormFile(file.name, file.upload.Filename)
		if err != nil {
			return newError(KindValidation, op, "fail to encode form", err)
		}
		if _, err := io.Copy(part, file.upload.Content); err != nil {
			return newError(KindValidation, op, fmt.Sprintf("fail to read %s", file.upload.Filename), err)
		}
	}
	if err := writer.Close(); err != nil {
		return newError(KindValidation, op, "fail to encode form", err)
	}

	req, err := g.newRequest(ctx, op, method, path, nil, buffer)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.roundTrip(op, req)
	if err != nil {
		return err
	}
	return decodeData(op, resp, out)
}

// newRequest builds a request with the common headers
func (g *Gateway) newRequest(ctx context.Context, op, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := g.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, newError(KindNetwork, op, "invalid request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := g.tokenSource(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// roundTrip executes a single attempt.
// Any non 2xx status is returned as *Error together with the response
func (g *Gateway) roundTrip(op string, req *http.Request) (*response, error) {
	start := time.Now()
	requestID := req.Header.Get("X-Request-ID")

	res, err := g.httpClient.Do(req)
	if err != nil {
		g.metrics.observeRequest(op, KindNetwork.String(), start)
		g.logger.Warn().Err(err).
			Str("requestId", requestID).
			Str("operation", op).
			Msgf("Fail to reach remote service")
		return nil, newError(KindNetwork, op, "remote service unreachable", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		g.metrics.observeRequest(op, KindNetwork.String(), start)
		return nil, newError(KindNetwork, op, "fail to read response", err)
	}

	resp := &response{
		status:      res.StatusCode,
		header:      res.Header,
		body:        body,
		requestID:   requestID,
		contentType: res.Header.Get("Content-Type"),
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		g.metrics.observeRequest(op, "success", start)
		g.logger.Debug().
			Str("requestId", requestID).
			Str("operation", op).
			Int("status", res.StatusCode).
			Dur("duration", time.Since(start)).
			Msgf("Remote call succeeded")
		return resp, nil
	}

	failure := normalizeFailure(op, resp)
	g.metrics.observeRequest(op, failure.Kind.String(), start)
	g.logger.Warn().
		Str("requestId", requestID).
		Str("operation", op).
		Int("status", res.StatusCode).
		Str("kind", failure.Kind.String()).
		Dur("duration", time.Since(start)).
		Msgf("Remote call failed: %s", failure.Message)
	return resp, failure
}

// decodeData unwraps the success envelope into out
func decodeData(op string, resp *response, out any) error {
	if out == nil || resp.status == http.StatusNoContent || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	data, err := unwrapEnvelope(resp.body)
	if err != nil {
		return newError(KindServerError, op, "unparseable response from remote service", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return newError(KindServerError, op, "unexpected response shape from remote service", err)
	}
	return nil
}

// unwrapEnvelope returns the data member of {success, message, data}
// or the whole body when it's not enveloped
func unwrapEnvelope(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}
	if trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return nil, errors.New("body is not json")
		}
		return trimmed, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	if data, ok := envelope["data"]; ok {
		return data, nil
	}
	return trimmed, nil
}

// pathID formats an id path segment
func pathID(prefix string, id int64, suffix ...string) string {
	return fmt.Sprintf("%s/%d%s", prefix, id, strings.Join(suffix, ""))
}
