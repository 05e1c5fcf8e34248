package service

import (
	"context"
	"errors"
	"testing"

	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/repository"
)

func TestTemperatureTransitions(t *testing.T) {
	f := newFixture(t, "yajuego 80", model.USD)
	catalog := repository.NewCatalogRepository(f.db)
	temp := NewTemperatureService(catalog, quietLogger())
	links := NewLinkService(catalog, temp)

	l1, _ := f.addLink(t, "T1", linkOpts{noPartner: true, status: model.LinkAvailable})
	f.addLink(t, "T2", linkOpts{noPartner: true, status: model.LinkAssigned})
	f.addLink(t, "T3", linkOpts{noPartner: true, status: model.LinkUnavailable})

	c, err := temp.Recalculate(context.Background(), f.campaign.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	approx(t, "temperature", c.Temperature, 0.5)
	if c.Status != model.CampaignAvailable || !c.HasLinks {
		t.Errorf("campaign = %s has_links=%v", c.Status, c.HasLinks)
	}

	c, err = links.SetStatus(context.Background(), l1.ID, model.LinkAssigned)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	approx(t, "temperature", c.Temperature, 1)
	if c.Status != model.CampaignOutStock || c.HasLinks {
		t.Errorf("campaign = %s has_links=%v", c.Status, c.HasLinks)
	}

	c, err = links.SetStatus(context.Background(), l1.ID, model.LinkAvailable)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if c.Status != model.CampaignAvailable {
		t.Errorf("status = %s", c.Status)
	}

	var stored model.Campaign
	f.db.First(&stored, f.campaign.ID)
	approx(t, "stored temperature", stored.Temperature, 0.5)
}

func TestTemperatureLeavesOperatorStatus(t *testing.T) {
	f := newFixture(t, "yajuego 80", model.USD)
	f.db.Model(f.campaign).Update("status", model.CampaignNotAvailable)
	f.addLink(t, "T1", linkOpts{noPartner: true, status: model.LinkAssigned})

	c, err := NewTemperatureService(repository.NewCatalogRepository(f.db), quietLogger()).Recalculate(context.Background(), f.campaign.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if c.Status != model.CampaignNotAvailable {
		t.Errorf("status = %s", c.Status)
	}
}

func TestSetStatusUnknownLink(t *testing.T) {
	f := newFixture(t, "yajuego 80", model.USD)
	catalog := repository.NewCatalogRepository(f.db)
	_, err := NewLinkService(catalog, NewTemperatureService(catalog, quietLogger())).SetStatus(context.Background(), 999, model.LinkAssigned)
	if !errors.Is(err, interfaces.ErrLinkNotFound) {
		t.Fatalf("err = %v", err)
	}
}
