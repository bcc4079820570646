package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection reset by peer")
	tests := []struct {
		name       string
		err        error
		wantKind   Kind
		wantStatus int
		wantMsg    string
	}{
		{"validation", InputValidation("file is empty"), KindInputValidation, http.StatusBadRequest, "file is empty"},
		{"state", DocumentState("document is not completed"), KindDocumentState, http.StatusConflict, "document is not completed"},
		{"not found", NotFound("document not found"), KindNotFound, http.StatusNotFound, "document not found"},
		{"external", ExternalService("answer unavailable", cause), KindExternalService, http.StatusBadGateway, "answer unavailable"},
		{"wrapped", fmt.Errorf("ask: %w", NotFound("document not found")), KindNotFound, http.StatusNotFound, "document not found"},
		{"plain", cause, KindInternal, http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.wantKind {
				t.Errorf("KindOf got %s, want %s", got, tt.wantKind)
			}
			if got := HTTPStatus(tt.err); got != tt.wantStatus {
				t.Errorf("HTTPStatus got %d, want %d", got, tt.wantStatus)
			}
			if got := PublicMessage(tt.err); got != tt.wantMsg {
				t.Errorf("PublicMessage got %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("timeout")
	err := ExternalService("embedding unavailable", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through errors.Is")
	}
	if PublicMessage(err) == cause.Error() {
		t.Error("public message must not expose the cause")
	}
}
