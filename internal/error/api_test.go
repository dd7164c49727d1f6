package derror

import (
	"errors"
	"testing"
)

func TestFromStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		check  func(error) bool
		name   string
	}{
		{401, func(err error) bool { var e *AuthenticationError; return errors.As(err, &e) }, "authentication"},
		{403, func(err error) bool { var e *AuthorizationError; return errors.As(err, &e) }, "authorization"},
		{404, func(err error) bool { var e *NotFoundError; return errors.As(err, &e) }, "not found"},
		{422, IsValidationError, "validation"},
		{500, func(err error) bool { var e *ServerError; return errors.As(err, &e) }, "server 500"},
		{502, func(err error) bool { var e *ServerError; return errors.As(err, &e) }, "server 502"},
		{503, func(err error) bool { var e *ServerError; return errors.As(err, &e) }, "server 503"},
		{504, func(err error) bool { var e *ServerError; return errors.As(err, &e) }, "server 504"},
		{418, func(err error) bool { ae, ok := AsAPIError(err); return ok && ae.StatusCode == 418 }, "generic"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := FromStatus(tc.status, "boom", nil)
			if !tc.check(err) {
				t.Fatalf("status %d mapped to %T", tc.status, err)
			}
			if !IsAPIError(err) {
				t.Fatalf("status %d should satisfy IsAPIError", tc.status)
			}
			if IsNetworkError(err) {
				t.Fatalf("status %d must not be a network error", tc.status)
			}
		})
	}
}

func TestValidationErrorFastAPIDetail(t *testing.T) {
	details := map[string]any{
		"detail": []any{
			map[string]any{"msg": "Price required", "loc": []any{"body", "price"}},
			map[string]any{"msg": "Term required"},
		},
	}
	err := FromStatus(422, "Unprocessable Entity", details)
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.Message != "Price required; Term required" {
		t.Fatalf("message = %q", ve.Message)
	}
}

func TestValidationErrorFieldMap(t *testing.T) {
	details := map[string]any{
		"validation_errors": map[string]any{
			"counter_offer": "must be positive",
			"user_action":   "unknown value",
		},
	}
	ve, ok := AsValidationError(FromStatus(422, "invalid", details))
	if !ok {
		t.Fatal("expected ValidationError")
	}
	if ve.ValidationErrors["counter_offer"] != "must be positive" {
		t.Fatalf("validation errors = %v", ve.ValidationErrors)
	}
	if ve.Message != "invalid" {
		t.Fatalf("message should be untouched without a detail array, got %q", ve.Message)
	}
}

func TestNetworkErrorPredicates(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &NetworkError{Message: "GET /api/v1/negotiations/x", Cause: cause}
	if !IsNetworkError(err) {
		t.Fatal("IsNetworkError should match")
	}
	if IsAPIError(err) {
		t.Fatal("a network error is not an API error")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should unwrap")
	}
	if !Taxonomized(err) || !Taxonomized(FromStatus(404, "x", nil)) {
		t.Fatal("both families are taxonomized")
	}
	if Taxonomized(errors.New("plain")) {
		t.Fatal("plain errors are not taxonomized")
	}
}

func TestFriendlyMessage(t *testing.T) {
	if got := FriendlyMessage(FromStatus(404, "Deal not found", nil)); got != "Deal not found" {
		t.Fatalf("api error message = %q", got)
	}
	if got := FriendlyMessage(&NetworkError{Message: "x"}); got != genericNetworkMessage {
		t.Fatalf("network message = %q", got)
	}
	if got := FriendlyMessage(errors.New("boom")); got != "boom" {
		t.Fatalf("plain error message = %q", got)
	}
	if got := FriendlyMessage(nil); got != genericFallback {
		t.Fatalf("nil error message = %q", got)
	}
	// wrapped taxonomized errors still resolve
	wrapped := wrap(FromStatus(403, "Access denied", nil))
	if got := FriendlyMessage(wrapped); got != "Access denied" {
		t.Fatalf("wrapped api error message = %q", got)
	}
}

func wrap(err error) error { return &wrapper{err} }

type wrapper struct{ inner error }

func (w *wrapper) Error() string { return "wrapped: " + w.inner.Error() }
func (w *wrapper) Unwrap() error { return w.inner }
