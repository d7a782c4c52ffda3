package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterStudentValidation(t *testing.T) {
	h := &handlers{}

	for _, testCase := range []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"missing body", `not json`, http.StatusBadRequest, "No JSON data provided"},
		{"blank enrollment number", `{"enrollment_number": "  ", "name": "Ana"}`, http.StatusBadRequest, "enrollment_number is required"},
		{"blank name", `{"enrollment_number": "123", "name": "  "}`, http.StatusBadRequest, "name is required"},
		{"invalid email", `{"enrollment_number": "123", "name": "Ana", "email": "not-an-email"}`, http.StatusBadRequest, "Invalid email format"},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/student/register", strings.NewReader(testCase.body))
			w := httptest.NewRecorder()

			h.registerStudent(w, req)

			require.Equal(t, testCase.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Equal(t, testCase.wantError, body["error"])
		})
	}
}
