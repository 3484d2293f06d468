package appErrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("fund: %w", ErrCampaignEnded)
	if !errors.Is(wrapped, ErrCampaignEnded) {
		t.Fatal("wrapped sentinel should match")
	}
	if errors.Is(wrapped, ErrCampaignNotActive) {
		t.Fatal("different codes must not match")
	}
	if !errors.Is(&Error{Code: CodeGoalNotMet, Message: "custom"}, ErrGoalNotMet) {
		t.Fatal("equal codes should match regardless of message")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Code
	}{
		{nil, ""},
		{errors.New("db down"), ""},
		{ErrUnauthorized, CodeUnauthorized},
		{fmt.Errorf("x: %w", ErrInvalidMint), CodeInvalidMint},
		{NewCampaignNotFound(4), CodeCampaignNotFound},
		{fmt.Errorf("x: %w", NewMilestoneNotFound(4, 2)), CodeMilestoneNotFound},
	}
	for _, tt := range tests {
		if got := CodeOf(tt.err); got != tt.want {
			t.Errorf("CodeOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		CodeTitleTooLong:         http.StatusBadRequest,
		CodeInvalidTokenAccount:  http.StatusBadRequest,
		CodeUnauthorized:         http.StatusForbidden,
		CodeCampaignNotFound:     http.StatusNotFound,
		CodeRefundAlreadyClaimed: http.StatusConflict,
		CodeMaxMilestonesReached: http.StatusConflict,
		CodeArithmeticOverflow:   http.StatusUnprocessableEntity,
		CodeInsufficientFunds:    http.StatusUnprocessableEntity,
		CodeAddressMismatch:      http.StatusInternalServerError,
		"":                       http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := HTTPStatus(code); got != want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", code, got, want)
		}
	}
}
