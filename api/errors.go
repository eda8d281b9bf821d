package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/seventv/cloudctl/types"
)

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func codeForStatus(status int) errors.ErrorCode {
	switch {
	case status == http.StatusUnauthorized:
		return types.ErrCodeAPIUnauthorized
	case status == http.StatusForbidden:
		return types.ErrCodeAPIForbidden
	case status == http.StatusNotFound:
		return types.ErrCodeAPINotFound
	case status == http.StatusConflict:
		return types.ErrCodeAPIConflict
	case status == http.StatusTooManyRequests:
		return types.ErrCodeAPIRateLimited
	case status >= 500:
		return types.ErrCodeAPIServer
	}

	return types.ErrCodeAPIInvalidInput
}

func errorFromResponse(resp *Response, data []byte) error {
	var body errorBody
	_ = json.Unmarshal(data, &body)

	msg := body.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	if msg == "" || len(msg) > 200 {
		msg = http.StatusText(resp.StatusCode)
	}

	err := errors.New(codeForStatus(resp.StatusCode), msg+" (status "+strconv.Itoa(resp.StatusCode)+")").
		WithContext("status", resp.StatusCode).
		WithContext("request_id", resp.RequestID)

	if body.Error.Code != "" {
		err = err.WithContext("server_code", body.Error.Code)
	}
	for k, v := range body.Error.Details {
		err = err.WithContext("detail."+k, v)
	}

	return err
}

func IsNotFound(err error) bool {
	return types.HasCode(err, types.ErrCodeAPINotFound)
}
