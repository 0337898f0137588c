package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
)

type verifyBody struct {
	Code string `json:"code" validate:"required,pickupcode"`
}

func TestDecodeJSONBodyValidatesPickupCode(t *testing.T) {
	cases := map[string]bool{
		`{"code":"0042"}`:  true,
		`{"code":"42"}`:    false,
		`{"code":"12a4"}`:  false,
		`{"code":"12345"}`: false,
		`{}`:               false,
	}
	for body, ok := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var dest verifyBody
		err := DecodeJSONBody(req, &dest)
		if ok && err != nil {
			t.Fatalf("%s: unexpected error %v", body, err)
		}
		if !ok && !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", body, err)
		}
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"1234","extra":true}`))
	var dest verifyBody
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseUUIDParam(t *testing.T) {
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", "not-a-uuid")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	if _, err := ParseUUIDParam(req, "orderId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseUUIDParam(req, "storeId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected missing param error, got %v", err)
	}
}

func TestParseContextUUID(t *testing.T) {
	if _, err := ParseContextUUID("", "store", pkgerrors.CodeForbidden); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := ParseContextUUID("abc", "store", pkgerrors.CodeForbidden); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	cases := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 100, false},
		{"?limit=25", 25, false},
		{"?limit=0", 0, true},
		{"?limit=501", 0, true},
		{"?limit=ten", 0, true},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/orders"+tc.query, nil)
		got, err := ParseQueryInt(req, "limit", 100, 1, 500)
		if tc.wantErr {
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("%q: expected validation error, got %v", tc.query, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %d, %v", tc.query, got, err)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  out of\x00 stock \n", 0); got != "out of stock" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("héllo wörld", 5); got != "héllo" {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
}

func TestDecodeJSONBodyRejectsEmptyAndOversizedBodies(t *testing.T) {
	var dest verifyBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err := DecodeJSONBody(req, &dest)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) || pkgerrors.As(err).Message() != "request body is empty" {
		t.Fatalf("expected empty body error, got %v", err)
	}

	big := `{"code":"` + strings.Repeat("1", MaxBodyBytes) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestDecodeJSONBodyRejectsTrailingDocuments(t *testing.T) {
	var dest verifyBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"1234"}{"code":"5678"}`))
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
