package marketapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"auction-predictor/src/models"
)

type fakeNetwork struct {
	body   []byte
	err    error
	params map[string]string
}

func (f *fakeNetwork) Get(ctx context.Context, url string, params map[string]string) ([]byte, error) {
	f.params = params
	return f.body, f.err
}

func newSource(net *fakeNetwork) *MarketAPISource {
	cfg := &models.MConfig{}
	cfg.MarketData.APIURL = "http://market.local/quotes"
	return NewMarketAPISource(cfg, net, nil)
}

func TestFetchQuotes(t *testing.T) {
	net := &fakeNetwork{body: []byte(`[
		{"date": "2024-01-03", "spot_price": 705000},
		{"date": "2024-01-02", "spot_price": 700000},
		{"date": "2023-12-29", "spot_price": 690000},
		{"date": "2024-01-04", "spot_price": null},
		{"date": "bad", "spot_price": 1}
	]`)}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	quotes, err := newSource(net).FetchQuotes(context.Background(), models.MetalCopper, from)
	if err != nil {
		t.Fatalf("FetchQuotes: %v", err)
	}
	if net.params["metal"] != "copper" || net.params["from"] != "2024-01-01" {
		t.Errorf("params = %v", net.params)
	}
	if len(quotes) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(quotes), quotes)
	}
	if quotes[0].SpotPrice != 700000 || quotes[1].SpotPrice != 705000 || quotes[0].Metal != models.MetalCopper {
		t.Errorf("quotes = %+v", quotes)
	}
}

func TestFetchQuotesErrors(t *testing.T) {
	from := time.Now()
	if _, err := newSource(&fakeNetwork{err: errors.New("down")}).FetchQuotes(context.Background(), "zinc", from); err == nil {
		t.Error("expected network error")
	}
	if _, err := newSource(&fakeNetwork{body: []byte(`{"oops":1}`)}).FetchQuotes(context.Background(), "zinc", from); err == nil {
		t.Error("expected decode error")
	}

	src := newSource(&fakeNetwork{})
	src.Config.MarketData.APIURL = ""
	if _, err := src.FetchQuotes(context.Background(), "zinc", from); err == nil {
		t.Error("expected error without api url")
	}
}
