package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type windowQuery struct {
	Signal string  `query:"signal" validate:"required"`
	Window float64 `query:"window" default:"60" validate:"gt=0"`
}

func newTestContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadAndValidateAppliesDefaults(t *testing.T) {
	c, _ := newTestContext("/?signal=rpm")

	q := &windowQuery{}
	if verr := ReadAndValidateRequest(c, q); verr != nil {
		t.Fatalf("unexpected validation failure: %v", verr)
	}
	if q.Signal != "rpm" {
		t.Fatalf("signal: %q", q.Signal)
	}
	if q.Window != 60 {
		t.Fatalf("default window: %v", q.Window)
	}
}

func TestReadAndValidateReportsFailedRule(t *testing.T) {
	c, _ := newTestContext("/?window=5")

	verr := ReadAndValidateRequest(c, &windowQuery{})
	if verr == nil {
		t.Fatal("missing signal accepted")
	}
	errs, ok := verr.([]ValidationError)
	if !ok || len(errs) != 1 {
		t.Fatalf("unexpected payload: %#v", verr)
	}
	if errs[0].Field != "Signal" || errs[0].Rule != "required" {
		t.Fatalf("wrong rule: %+v", errs[0])
	}
}

func TestReadAndValidateRejectsNonPositiveWindow(t *testing.T) {
	c, _ := newTestContext("/?signal=rpm&window=0")

	verr := ReadAndValidateRequest(c, &windowQuery{})
	if verr == nil {
		t.Fatal("zero window accepted")
	}
}

func TestResponseStatusOnWire(t *testing.T) {
	c, rec := newTestContext("/")
	if err := NotFoundResponse(c, "missing"); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("wire status: %d", rec.Code)
	}

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Status != http.StatusNotFound || env.Data != "missing" {
		t.Fatalf("envelope: %+v", env)
	}
}

func TestAppErrorResponseUsesErrorStatus(t *testing.T) {
	c, rec := newTestContext("/")
	err := BadRequestErrorf("bad line").WithError(echo.ErrBadRequest)
	if e := AppErrorResponse(c, err); e != nil {
		t.Fatal(e)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("wire status: %d", rec.Code)
	}
}
