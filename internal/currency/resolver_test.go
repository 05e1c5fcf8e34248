package currency

import (
	"errors"
	"math"
	"testing"
	"time"

	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
)

func fxRow(t *testing.T, m model.RateMatrix) *model.FxPartner {
	t.Helper()
	fx := &model.FxPartner{ID: 7, CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	if err := fx.SetMatrix(m); err != nil {
		t.Fatal(err)
	}
	return fx
}

func TestResolverRate(t *testing.T) {
	r, err := NewResolver(fxRow(t, model.RateMatrix{
		{From: model.USD, To: model.COP}: 4000,
		{From: model.COP, To: model.USD}: 0.00025,
	}), 0.95)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		from, to model.Currency
		mode     Mode
		want     float64
	}{
		{"same no haircut", model.USD, model.USD, NoHaircut, 1},
		{"same haircut", model.USD, model.USD, Haircut, 1},
		{"same haircut always", model.USD, model.USD, HaircutAlways, 0.95},
		{"cross no haircut", model.USD, model.COP, NoHaircut, 4000},
		{"cross haircut", model.USD, model.COP, Haircut, 3800},
		{"cross haircut always", model.USD, model.COP, HaircutAlways, 3800},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Rate(tt.from, tt.to, tt.mode)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Rate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolverMissingCell(t *testing.T) {
	r, err := NewResolver(fxRow(t, model.RateMatrix{{From: model.USD, To: model.COP}: 4000}), 0.95)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Rate(model.EUR, model.MXN, Haircut); !errors.Is(err, interfaces.ErrFXUndefined) {
		t.Errorf("expected ErrFXUndefined, got %v", err)
	}
	if _, err := NewResolver(nil, 0.95); !errors.Is(err, interfaces.ErrFXUndefined) {
		t.Errorf("expected ErrFXUndefined for nil row, got %v", err)
	}
}

func TestResolverInvertible(t *testing.T) {
	m := model.RateMatrix{}
	usd := map[model.Currency]float64{
		model.USD: 1, model.EUR: 0.92, model.COP: 3912.5, model.MXN: 17.05,
		model.BRL: 5.01, model.PEN: 3.72, model.GBP: 0.79, model.CLP: 935.2,
	}
	for a, ra := range usd {
		for b, rb := range usd {
			if a != b {
				m[model.CurrencyPair{From: a, To: b}] = math.Round(rb/ra*1e6) / 1e6
			}
		}
	}
	r, err := NewResolver(fxRow(t, m), 0.95)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range model.Currencies {
		for _, b := range model.Currencies {
			ab, err := r.Rate(a, b, NoHaircut)
			if err != nil {
				t.Fatal(err)
			}
			ba, _ := r.Rate(b, a, NoHaircut)
			if p := ab * ba; math.Abs(p-1) > 0.01 {
				t.Errorf("rate(%s,%s)*rate(%s,%s) = %v", a, b, b, a, p)
			}
		}
	}
}
