// Package webhook implements the call_webhook action: an outbound HTTP call
// with a bounded timeout. A non-2xx response is recorded as a normal output;
// only transport-level errors fail the step.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/protocol"
)

const defaultTimeout = 30 * time.Second

const schema = `{
	"type": "object",
	"required": ["url"],
	"properties": {
		"url": {"type": "string", "minLength": 1},
		"method": {"type": "string", "enum": ["GET", "POST", "PUT", "PATCH", "DELETE", "get", "post", "put", "patch", "delete"]},
		"headers": {"type": "object"},
		"body": {},
		"timeoutMs": {"type": "number", "minimum": 1}
	}
}`

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() models.ActionType {
	return models.ActionCallWebhook
}

func (*Factory) Schema() string {
	return schema
}

func (*Factory) Create(config map[string]any) (protocol.Action, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return nil, protocol.NewActionError(models.ActionCallWebhook, "url is required", nil)
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodPost
	}

	headers := make(map[string]string)

	if headersConfig, ok := config["headers"].(map[string]any); ok {
		for key, value := range headersConfig {
			if strValue, ok := value.(string); ok {
				headers[key] = strValue
			}
		}
	}

	timeout := defaultTimeout
	if timeoutMs, ok := config["timeoutMs"].(float64); ok && timeoutMs > 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}

	return &Action{
		url:     url,
		method:  strings.ToUpper(method),
		headers: headers,
		body:    config["body"],
		timeout: timeout,
	}, nil
}

type Action struct {
	url     string
	method  string
	headers map[string]string
	body    any
	timeout time.Duration
}

func (a *Action) Execute(ctx context.Context, _ string, logger *slog.Logger) (any, error) {
	logger.Info("Calling webhook", "url", a.url, "method", a.method)

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	bodyReader, contentType, err := a.encodeBody()
	if err != nil {
		return nil, protocol.NewActionError(models.ActionCallWebhook, "failed to encode request body", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, a.method, a.url, bodyReader)
	if err != nil {
		return nil, protocol.NewActionError(models.ActionCallWebhook, "failed to create request", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	for key, value := range a.headers {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, protocol.NewActionError(models.ActionCallWebhook, "webhook request failed", err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, protocol.NewActionError(models.ActionCallWebhook, "failed to read response body", err)
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300

	result := map[string]any{
		"success": success,
		"status":  resp.StatusCode,
	}

	if success {
		result["data"] = decodeBody(data)
	} else {
		result["error"] = fmt.Sprintf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	logger.Info("Webhook call finished", "status", resp.StatusCode, "success", success)

	return result, nil
}

func (a *Action) encodeBody() (io.Reader, string, error) {
	switch body := a.body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return strings.NewReader(body), "", nil
	default:
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, "", err
		}

		return strings.NewReader(string(payload)), "application/json", nil
	}
}

func decodeBody(data []byte) any {
	var decoded any

	if err := json.Unmarshal(data, &decoded); err == nil {
		return decoded
	}

	return string(data)
}
