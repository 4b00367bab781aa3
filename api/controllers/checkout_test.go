package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/middleware"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/checkout"
)

type fakeCheckoutService struct {
	checkout.Service
	lookupPhone   string
	lookupSession uuid.UUID
}

func (f *fakeCheckoutService) LookupCustomer(_ context.Context, _ uuid.UUID, sessionID uuid.UUID, phone string) (*checkout.LookupResult, error) {
	f.lookupSession = sessionID
	f.lookupPhone = phone
	return &checkout.LookupResult{}, nil
}

func checkoutRequest(method, target, sessionID string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rc := chi.NewRouteContext()
	rc.URLParams.Add("sessionID", sessionID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	return req.WithContext(middleware.WithProviderID(ctx, uuid.New()))
}

func TestLookupCustomerForwardsPhone(t *testing.T) {
	svc := &fakeCheckoutService{}
	sessionID := uuid.New()

	req := checkoutRequest(http.MethodPost, "/api/v1/checkout/sessions/"+sessionID.String()+"/lookup",
		sessionID.String(), `{"phone":"+13055550101"}`)
	resp := httptest.NewRecorder()

	LookupCustomer(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lookupPhone != "+13055550101" {
		t.Fatalf("phone not forwarded: %s", svc.lookupPhone)
	}
	if svc.lookupSession != sessionID {
		t.Fatalf("session id not parsed from path: %s", svc.lookupSession)
	}
}

func TestLookupCustomerRejectsBadPhone(t *testing.T) {
	svc := &fakeCheckoutService{}
	sessionID := uuid.New()

	req := checkoutRequest(http.MethodPost, "/api/v1/checkout/sessions/"+sessionID.String()+"/lookup",
		sessionID.String(), `{"phone":"305-555-0101"}`)
	resp := httptest.NewRecorder()

	LookupCustomer(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lookupPhone != "" {
		t.Fatal("service must not run on validation failure")
	}
}

func TestLookupCustomerRejectsBadSessionID(t *testing.T) {
	svc := &fakeCheckoutService{}

	req := checkoutRequest(http.MethodPost, "/api/v1/checkout/sessions/nope/lookup",
		"nope", `{"phone":"+13055550101"}`)
	resp := httptest.NewRecorder()

	LookupCustomer(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
