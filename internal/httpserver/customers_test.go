package httpserver

import (
	"net/http"
	"strings"
	"testing"

	"bizadmin/internal/domain"
)

const customerBody = `{"firmenname":"Acme GmbH","strasse":"Hauptstr.","hausnummer":"1","plz":"10115","ort":"Berlin","telefonnummer":"030 123","email":"info@acme.de","contact":{"firstName":"Max","name":"Muster"}}`

func TestCreateCustomerHandler(t *testing.T) {
	svc := &stubCustomerService{customer: &domain.Customer{ID: testID, CompanyName: "Acme GmbH"}}
	deps := testDeps()
	deps.CustomerSvc = svc
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodPost, "/api/customers", customerBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if svc.lastIn.CompanyName != "Acme GmbH" {
		t.Fatalf("body not bound: %+v", svc.lastIn)
	}
	if !strings.Contains(rec.Body.String(), `"firmenname":"Acme GmbH"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCreateCustomerHandler_Duplicate(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerService{err: domain.NewDuplicateError("a customer with email info@acme.de already exists")}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodPost, "/api/customers", customerBody)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec.Body.String() != `{"error":"a customer with email info@acme.de already exists"}` {
		t.Fatalf("expected duplicate message, got %s", rec.Body.String())
	}
}

func TestCreateCustomerHandler_MalformedJSON(t *testing.T) {
	router := newTestRouter(t, testDeps())

	rec := do(router, http.MethodPost, "/api/customers", `{"firmenname":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":`) {
		t.Fatalf("expected error body, got %s", rec.Body.String())
	}
}

func TestCreateCustomerHandler_BindErrors(t *testing.T) {
	router := newTestRouter(t, testDeps())

	cases := []struct {
		body string
		want string
	}{
		{"", `{"error":"request body required"}`},
		{`{"firmenname":`, `{"error":"invalid JSON body"}`},
		{`{"firmenname":42}`, `{"error":"firmenname: expected string"}`},
	}
	for _, tc := range cases {
		rec := do(router, http.MethodPost, "/api/customers", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", tc.body, rec.Code)
		}
		if rec.Body.String() != tc.want {
			t.Fatalf("%q: unexpected body %s", tc.body, rec.Body.String())
		}
	}
}

func TestGetCustomerHandler_NotFound(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerService{err: domain.ErrNotFound}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodGet, "/api/customers/"+testID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec.Body.String() != `{"error":"not found"}` {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestListCustomersHandler(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerService{customer: &domain.Customer{ID: testID, CompanyName: "Acme GmbH"}}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodGet, "/api/customers", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ansprechpartner_count":1`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAddContactHandler(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerService{contact: &domain.Contact{ID: testID, Name: "Muster"}}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodPost, "/api/customers/"+testID+"/contacts", `{"firstName":"Max","name":"Muster"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCustomerChildrenHandlers(t *testing.T) {
	router := newTestRouter(t, testDeps())

	for _, path := range []string{"/onboardings", "/kalkulationen"} {
		rec := do(router, http.MethodGet, "/api/customers/"+testID+path, "")
		if rec.Code != http.StatusOK || rec.Body.String() != "[]" {
			t.Fatalf("%s: expected empty list, got %d %s", path, rec.Code, rec.Body.String())
		}
	}
}
