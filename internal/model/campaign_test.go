package model

import (
	"errors"
	"math"
	"strings"
	"testing"

	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
)

func input() CampaignInput {
	return CampaignInput{
		Title:            "Library books",
		ShortDescription: "Restock the village library",
		Category:         CategoryEducation,
		FundingGoal:      1000,
		DurationDays:     10,
	}
}

func TestNewCampaign(t *testing.T) {
	c, err := NewCampaign(5, "alice", input(), 1_000)
	if err != nil {
		t.Fatalf("new campaign: %v", err)
	}
	if c.Deadline != 1_000+10*SecondsPerDay || c.CreatedAt != 1_000 {
		t.Fatalf("unexpected timestamps %d/%d", c.CreatedAt, c.Deadline)
	}
	if !c.IsActive || c.ID != 5 || c.Creator != "alice" {
		t.Fatalf("unexpected campaign %+v", c)
	}
	if err := c.VerifyAddress(); err != nil {
		t.Fatalf("verify address: %v", err)
	}

	c.Creator = "mallory"
	if !errors.Is(c.VerifyAddress(), appErrors.ErrAddressMismatch) {
		t.Fatal("expected a mismatch after the creator changed")
	}
}

func TestValidateLengthsAreBytes(t *testing.T) {
	in := input()
	// 40 two-byte runes are 80 bytes.
	in.Title = strings.Repeat("é", 40)
	if err := in.Validate(); err != nil {
		t.Fatalf("80 bytes should pass, got %v", err)
	}
	in.Title = strings.Repeat("é", 41)
	if !errors.Is(in.Validate(), appErrors.ErrTitleTooLong) {
		t.Fatal("82 bytes should be rejected")
	}
}

func TestCampaignLifecycleChecks(t *testing.T) {
	c, _ := NewCampaign(0, "alice", input(), 0)

	if err := c.CheckFundable(c.Deadline - 1); err != nil {
		t.Fatalf("fundable before deadline: %v", err)
	}
	if !errors.Is(c.CheckFundable(c.Deadline), appErrors.ErrCampaignEnded) {
		t.Fatal("deadline itself is ended")
	}
	if !errors.Is(c.CheckRefundable(), appErrors.ErrCampaignStillActive) {
		t.Fatal("active campaign is not refundable")
	}
	if !errors.Is(c.RequireCreator("bob"), appErrors.ErrUnauthorized) || !errors.Is(c.RequireCreator(""), appErrors.ErrUnauthorized) {
		t.Fatal("only the creator passes")
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !errors.Is(c.Close(), appErrors.ErrCampaignNotActive) {
		t.Fatal("closing twice must fail")
	}
	if !errors.Is(c.CheckFundable(0), appErrors.ErrCampaignNotActive) {
		t.Fatal("inactive is reported before the deadline")
	}
	if err := c.CheckRefundable(); err != nil {
		t.Fatalf("closed and unfunded is refundable: %v", err)
	}
	c.AmountRaised = c.FundingGoal
	if !errors.Is(c.CheckRefundable(), appErrors.ErrGoalWasMet) {
		t.Fatal("met goal is not refundable")
	}
}

func TestProgressAndDaysLeft(t *testing.T) {
	c, _ := NewCampaign(0, "alice", input(), 0)
	c.AmountRaised = 1500
	if got := c.ProgressPercent(); got != 150 {
		t.Fatalf("progress is not capped, got %v", got)
	}
	if got := c.DaysLeft(SecondsPerDay + 1); got != 8 {
		t.Fatalf("expected 8 days left, got %d", got)
	}
	if got := c.DaysLeft(c.Deadline + 100); got != 0 {
		t.Fatalf("expected 0 days after the deadline, got %d", got)
	}
}

func TestCheckedArithmetic(t *testing.T) {
	if _, err := CheckedAddU64(math.MaxUint64, 1); !errors.Is(err, appErrors.ErrArithmeticOverflow) {
		t.Fatal("u64 add must overflow")
	}
	if v, err := CheckedAddU64(math.MaxUint64-1, 1); err != nil || v != math.MaxUint64 {
		t.Fatalf("u64 add at the edge: %d, %v", v, err)
	}
	if _, err := CheckedAddU32(math.MaxUint32, 1); err == nil {
		t.Fatal("u32 add must overflow")
	}
	if _, err := CheckedAddU8(math.MaxUint8, 1); err == nil {
		t.Fatal("u8 add must overflow")
	}
	if _, err := CheckedSubU64(1, 2); err == nil {
		t.Fatal("u64 sub must underflow")
	}
	if _, err := CheckedDeadline(math.MaxInt64-SecondsPerDay+1, 1); err == nil {
		t.Fatal("deadline must overflow")
	}
	if _, err := CheckedDeadline(0, math.MaxUint64); err == nil {
		t.Fatal("huge duration must overflow")
	}

	s := SequenceCounter{Count: math.MaxUint64}
	if err := s.Advance(); err == nil || s.Count != math.MaxUint64 {
		t.Fatal("counter must not wrap")
	}
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("  HealthCare ")
	if !ok || c != CategoryHealthcare || c.Label() != "Healthcare" {
		t.Fatalf("unexpected parse %q %v", c, ok)
	}
	if _, ok := ParseCategory("sports"); ok {
		t.Fatal("unknown category accepted")
	}
}
