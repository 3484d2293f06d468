package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/unclebandit/hoperise-backend/internal/activity"
	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
	"github.com/unclebandit/hoperise-backend/internal/model"
	"github.com/unclebandit/hoperise-backend/internal/repository"
)

func TestListCampaigns_Pagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.create(1000)
	}

	campaigns, pagination, err := f.campaigns.ListCampaigns(f.ctx, 2, 2, repository.CampaignFilter{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(campaigns) != 2 || campaigns[0].ID != 2 || campaigns[1].ID != 1 {
		t.Fatalf("expected campaigns 2 and 1 newest first, got %+v", campaigns)
	}
	if pagination["page"] != 2 || pagination["page_size"] != 2 || pagination["total_count"] != 5 || pagination["total_pages"] != 3 {
		t.Fatalf("unexpected pagination %v", pagination)
	}

	campaigns, pagination, err = f.campaigns.ListCampaigns(f.ctx, 0, 1000, repository.CampaignFilter{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pagination["page"] != 1 || pagination["page_size"] != 100 || len(campaigns) != 5 {
		t.Fatalf("expected clamped paging, got %v with %d campaigns", pagination, len(campaigns))
	}

	campaigns, _, err = f.campaigns.ListCampaigns(f.ctx, 9, 2, repository.CampaignFilter{})
	if err != nil || len(campaigns) != 0 {
		t.Fatalf("expected empty page past the end, got %d, %v", len(campaigns), err)
	}
}

func TestListCampaigns_HugePage(t *testing.T) {
	f := newFixture(t)
	f.create(1000)

	campaigns, pagination, err := f.campaigns.ListCampaigns(f.ctx, math.MaxInt64, 100, repository.CampaignFilter{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(campaigns) != 0 {
		t.Fatalf("expected an empty page, got %d campaigns", len(campaigns))
	}
	if pagination["page"] != math.MaxInt/100 || pagination["total_count"] != 1 {
		t.Fatalf("unexpected pagination %v", pagination)
	}
}

func TestListCampaigns_Filters(t *testing.T) {
	f := newFixture(t)
	water := f.create(1000)

	in := validInput(500)
	in.Title = "Robotics Club"
	in.ShortDescription = "Kits for the after-school club"
	in.Category = model.CategoryTechnology
	robotics, err := f.escrow.CreateCampaign(f.ctx, bob, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.escrow.CloseCampaign(f.ctx, creator, water.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	active, inactive := true, false
	tests := []struct {
		name   string
		filter repository.CampaignFilter
		want   []uint64
	}{
		{"all", repository.CampaignFilter{}, []uint64{robotics.ID, water.ID}},
		{"category", repository.CampaignFilter{Category: model.CategoryTechnology}, []uint64{robotics.ID}},
		{"creator", repository.CampaignFilter{Creator: creator}, []uint64{water.ID}},
		{"active", repository.CampaignFilter{Active: &active}, []uint64{robotics.ID}},
		{"inactive", repository.CampaignFilter{Active: &inactive}, []uint64{water.ID}},
		{"search title", repository.CampaignFilter{Search: "WATER"}, []uint64{water.ID}},
		{"search description", repository.CampaignFilter{Search: "after-school"}, []uint64{robotics.ID}},
		{"no match", repository.CampaignFilter{Search: "zzz"}, []uint64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, pagination, err := f.campaigns.ListCampaigns(f.ctx, 1, 10, tt.filter)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != len(tt.want) || pagination["total_count"] != len(tt.want) {
				t.Fatalf("expected %v, got %d campaigns", tt.want, len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("expected %v, got campaign %d at %d", tt.want, got[i].ID, i)
				}
			}
		})
	}
}

func TestFeaturedCampaigns(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.create(1000)
	}
	if _, err := f.escrow.CloseCampaign(f.ctx, creator, 4); err != nil {
		t.Fatalf("close: %v", err)
	}

	featured, err := f.campaigns.FeaturedCampaigns(f.ctx, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(featured) != 3 {
		t.Fatalf("expected default of 3 featured, got %d", len(featured))
	}
	for i, want := range []uint64{3, 2, 1} {
		if featured[i].ID != want || !featured[i].IsActive {
			t.Fatalf("expected newest active campaigns 3,2,1, got %+v", featured)
		}
	}
}

func TestGetCampaignDetailsWithStats(t *testing.T) {
	f := newFixture(t)
	c := f.create(1000)
	f.mint(alice, 500)
	f.fund(alice, c.ID, 500)

	d := f.campaign(c.ID)
	if d.Stats.ProgressPercent != 50 || d.Stats.DaysLeft != 30 || d.Stats.Ended || d.Stats.GoalMet {
		t.Fatalf("unexpected stats %+v", d.Stats)
	}
	if d.Stats.CategoryLabel != "Community" {
		t.Fatalf("expected label Community, got %q", d.Stats.CategoryLabel)
	}

	f.clock.Advance(29*24*time.Hour + time.Hour)
	if got := f.campaign(c.ID).Stats.DaysLeft; got != 0 {
		t.Fatalf("expected days left to round down to 0, got %d", got)
	}
	f.clock.Advance(23 * time.Hour)
	if d := f.campaign(c.ID); !d.Stats.Ended || d.Stats.DaysLeft != 0 {
		t.Fatalf("expected ended campaign, got %+v", d.Stats)
	}

	_, err := f.campaigns.GetCampaignDetailsWithStats(f.ctx, 42)
	var nf *appErrors.ErrCampaignNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestContributionsReadSide(t *testing.T) {
	f := newFixture(t)
	c := f.create(1000)
	f.mint(alice, 100)
	f.mint(bob, 100)
	f.fund(alice, c.ID, 10)
	f.clock.Advance(time.Minute)
	f.fund(bob, c.ID, 20)

	list, err := f.campaigns.ListContributions(f.ctx, c.ID)
	if err != nil {
		t.Fatalf("list contributions: %v", err)
	}
	if len(list) != 2 || list[0].Contributor != bob || list[1].Contributor != alice {
		t.Fatalf("expected bob then alice, got %d records", len(list))
	}

	mine, err := f.campaigns.GetContribution(f.ctx, c.ID, "carol-wallet")
	if err != nil {
		t.Fatalf("get contribution: %v", err)
	}
	if mine.Amount != 0 || mine.Contributor != "carol-wallet" || mine.Campaign != c.Address {
		t.Fatalf("expected empty slot, got %+v", mine)
	}
}

type stubActivity struct {
	entries []activity.Entry
	asked   int
}

func (s *stubActivity) Recent(ctx context.Context, campaignID uint64, n int) ([]activity.Entry, error) {
	s.asked = n
	return s.entries, nil
}

func TestRecentActivity(t *testing.T) {
	f := newFixture(t)
	c := f.create(1000)

	entries, err := f.campaigns.RecentActivity(f.ctx, c.ID, 10)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty feed without a reader, got %v, %v", entries, err)
	}

	stub := &stubActivity{entries: []activity.Entry{{EventID: "e1", Message: "hello"}}}
	f.campaigns.Activity = stub
	entries, err = f.campaigns.RecentActivity(f.ctx, c.ID, 5)
	if err != nil || len(entries) != 1 || stub.asked != 5 {
		t.Fatalf("expected stubbed entry, got %v, %v", entries, err)
	}

	_, err = f.campaigns.RecentActivity(f.ctx, 77, 5)
	var nf *appErrors.ErrCampaignNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found for unknown campaign, got %v", err)
	}
}
