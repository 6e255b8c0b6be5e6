package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// mapHTTPError returns nil for 2xx responses and a *MatrixError otherwise.
// Non-JSON error bodies still produce a MatrixError carrying the status.
func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	matrixErr := &MatrixError{StatusCode: resp.StatusCode()}
	if err := json.Unmarshal(resp.Body(), matrixErr); err != nil || matrixErr.Code == "" {
		body := strings.TrimSpace(string(resp.Body()))
		if body == "" {
			body = http.StatusText(resp.StatusCode())
		}
		matrixErr.Code = ErrCodeUnknown
		matrixErr.Message = body
	}

	return matrixErr
}

// transportError wraps a failure that never produced a response. Context
// cancellation stays reachable through errors.Is.
func transportError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrNetwork, err)
}
