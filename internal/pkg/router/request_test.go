package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_DecodeBody(t *testing.T) {
	type payload struct {
		Code string `json:"code"`
	}

	tests := []struct {
		name        string
		body        string
		contentType string
		wantCode    string
		wantMsg     string
	}{
		{name: "Ok", body: `{"code":"123456"}`, contentType: "application/json; charset=utf-8", wantCode: "123456"},
		{name: "NoContentType", body: `{"code":"1"}`, wantCode: "1"},
		{name: "Empty", body: ``, contentType: "application/json", wantMsg: "Invalid request body"},
		{name: "UnknownField", body: `{"code":"1","x":1}`, contentType: "application/json", wantMsg: "Invalid request body"},
		{name: "Trailing", body: `{"code":"1"}{"code":"2"}`, contentType: "application/json", wantMsg: "Invalid request body"},
		{name: "Form", body: `code=1`, contentType: "application/x-www-form-urlencoded", wantMsg: "Content-Type must be application/json"},
		{name: "TooLarge", body: `{"code":"` + strings.Repeat("9", maxBodyBytes) + `"}`, contentType: "application/json", wantMsg: "Request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hr := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				hr.Header.Set("Content-Type", tt.contentType)
			}

			var got payload
			err := (&Request{Request: hr}).DecodeBody(&got)

			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantCode, got.Code)
				return
			}

			var ge *goerror.Error
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, goerror.CodeInvalidFormat, ge.Code())
			assert.Equal(t, tt.wantMsg, ge.Msg())
		})
	}
}
