package result

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tbourn/go-gateway-errors/internal/codes"
)

func TestSuccessEmpty_RoundTrip(t *testing.T) {
	b, err := json.Marshal(SuccessEmpty())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"data":null`) {
		t.Fatalf("expected explicit null data, got %s", b)
	}

	var got Result
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Code != "00000" || got.Data != nil {
		t.Fatalf("unexpected round-trip: %+v", got)
	}
	if !IsSuccess(&got) {
		t.Fatalf("round-tripped envelope should be success")
	}
}

func TestFactories(t *testing.T) {
	s := Success(map[string]int{"n": 1})
	if s.Code != codes.Success.Code || s.Message != codes.Success.Message || s.Data == nil {
		t.Fatalf("Success: %+v", s)
	}

	f := Failure(codes.ServiceTimeout)
	if f.Code != "10002" || f.Message != codes.ServiceTimeout.Message || f.Data != nil {
		t.Fatalf("Failure: %+v", f)
	}

	fc := FailureCode("21030", "token expired")
	if fc.Code != "21030" || fc.Message != "token expired" || fc.Data != nil {
		t.Fatalf("FailureCode: %+v", fc)
	}

	fd := FailureWithData("30001", "bad field", []string{"name"})
	if fd.Code != "30001" || fd.Data == nil {
		t.Fatalf("FailureWithData: %+v", fd)
	}
	if IsSuccess(fd) {
		t.Fatalf("failure must not report success")
	}
}

func TestWithData_OnlyOnSuccess(t *testing.T) {
	s := SuccessEmpty().WithData(42)
	if s.Data != 42 {
		t.Fatalf("expected payload on success, got %v", s.Data)
	}
	f := FailureCode("10003", "x").WithData(42)
	if f.Data != nil {
		t.Fatalf("payload must not be set on failure, got %v", f.Data)
	}
}

func TestIsSuccess(t *testing.T) {
	if IsSuccess(nil) {
		t.Fatalf("nil must not be success")
	}
	if IsSuccess(&Result{}) {
		t.Fatalf("empty code must not be success")
	}
	if !IsSuccess(SuccessEmpty()) {
		t.Fatalf("SuccessEmpty must be success")
	}
}

func TestAssertions(t *testing.T) {
	if err := AssertSuccess(SuccessEmpty(), "boom"); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	err := AssertSuccess(FailureCode("10003", "x"), "upstream failed")
	if !errors.Is(err, ErrNotSuccess) || !strings.Contains(err.Error(), "upstream failed") {
		t.Fatalf("unexpected err: %v", err)
	}

	called := false
	err = AssertSuccessFunc(nil, func() string { called = true; return "lazy" })
	if !called || !errors.Is(err, ErrNotSuccess) {
		t.Fatalf("supplier not used: called=%v err=%v", called, err)
	}
	if err := AssertSuccessFunc(nil, nil); !errors.Is(err, ErrNotSuccess) {
		t.Fatalf("nil supplier: %v", err)
	}
	called = false
	if err := AssertSuccessFunc(SuccessEmpty(), func() string { called = true; return "" }); err != nil || called {
		t.Fatalf("supplier must not run on success")
	}
}

func TestDataIfSuccess(t *testing.T) {
	n, err := DataIfSuccess[int](Success(7), "x")
	if err != nil || n != 7 {
		t.Fatalf("got %d, %v", n, err)
	}

	s, err := DataIfSuccess[string](SuccessEmpty(), "x")
	if err != nil || s != "" {
		t.Fatalf("absent data: %q, %v", s, err)
	}

	if _, err := DataIfSuccess[string](Success(7), "wrong type"); err == nil {
		t.Fatalf("expected type error")
	}

	if _, err := DataIfSuccess[int](FailureCode("10001", "gone"), "no data"); !errors.Is(err, ErrNotSuccess) {
		t.Fatalf("expected ErrNotSuccess, got %v", err)
	}
}

func TestString(t *testing.T) {
	var r *Result
	if r.String() != "Result{<nil>}" {
		t.Fatalf("nil String: %q", r.String())
	}
	if got := FailureCode("1", "m").String(); !strings.Contains(got, `code="1"`) {
		t.Fatalf("String: %q", got)
	}
}
