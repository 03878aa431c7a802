package venue

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestBuildOrderConfigVariants(t *testing.T) {
	cases := []struct {
		name      string
		orderType OrderType
		params    ConfigParams
		wantJSON  string
	}{
		{
			name:      "market",
			orderType: OrderTypeMarket,
			params:    ConfigParams{BaseSize: "1.5"},
			wantJSON:  `{"market_market_ioc":{"base_size":"1.5"}}`,
		},
		{
			name:      "market ioc alias",
			orderType: OrderTypeMarketIOC,
			params:    ConfigParams{BaseSize: "2"},
			wantJSON:  `{"market_market_ioc":{"base_size":"2"}}`,
		},
		{
			name:      "limit gtc",
			orderType: OrderTypeLimitGTC,
			params:    ConfigParams{BaseSize: "1", LimitPrice: "120.0000", PostOnly: true},
			wantJSON:  `{"limit_limit_gtc":{"base_size":"1","limit_price":"120.0000","post_only":true}}`,
		},
		{
			name:      "limit gtd carries end time",
			orderType: OrderTypeLimitGTD,
			params:    ConfigParams{BaseSize: "1", LimitPrice: "120.0000", EndTime: "2026-08-23T00:00:00Z"},
			wantJSON:  `{"limit_limit_gtd":{"base_size":"1","end_time":"2026-08-23T00:00:00Z","limit_price":"120.0000"}}`,
		},
		{
			name:      "limit fok",
			orderType: OrderTypeLimitFOK,
			params:    ConfigParams{BaseSize: "3", LimitPrice: "10.5000"},
			wantJSON:  `{"limit_limit_fok":{"base_size":"3","limit_price":"10.5000"}}`,
		},
		{
			name:      "stop limit gtc",
			orderType: OrderTypeStopLimitGTC,
			params: ConfigParams{
				BaseSize:      "1",
				LimitPrice:    "89.550",
				StopPrice:     "90.000",
				StopDirection: StopDirectionDown,
			},
			wantJSON: `{"stop_limit_stop_limit_gtc":{"base_size":"1","limit_price":"89.550","stop_price":"90.000","stop_direction":"STOP_DIRECTION_STOP_DOWN"}}`,
		},
		{
			name:      "bracket gtc",
			orderType: OrderTypeBracketGTC,
			params:    ConfigParams{BaseSize: "1", LimitPrice: "120.0000", StopTriggerPrice: "90.000"},
			wantJSON:  `{"trigger_bracket_gtc":{"base_size":"1","limit_price":"120.0000","stop_trigger_price":"90.000"}}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := BuildOrderConfig(tc.orderType, tc.params)
			if err != nil {
				t.Fatalf("BuildOrderConfig returned error: %v", err)
			}

			raw, err := json.Marshal(cfg)
			if err != nil {
				t.Fatalf("marshal returned error: %v", err)
			}
			if string(raw) != tc.wantJSON {
				t.Fatalf("wire format mismatch\ngot:  %s\nwant: %s", raw, tc.wantJSON)
			}
			if cfg.Size() != tc.params.BaseSize {
				t.Fatalf("unexpected base_size: %s", cfg.Size())
			}
		})
	}
}

func TestBuildOrderConfigPricesNotRerounded(t *testing.T) {
	cfg, err := BuildOrderConfig(OrderTypeLimitGTC, ConfigParams{BaseSize: "1", LimitPrice: "0.123456789"})
	if err != nil {
		t.Fatalf("BuildOrderConfig returned error: %v", err)
	}
	if cfg.(LimitGTC).LimitPrice != "0.123456789" {
		t.Fatalf("limit price was rewritten: %s", cfg.(LimitGTC).LimitPrice)
	}
}

func TestBuildOrderConfigValidation(t *testing.T) {
	cases := []struct {
		name      string
		orderType OrderType
		params    ConfigParams
	}{
		{"unknown type", OrderType("market_gtc"), ConfigParams{BaseSize: "1"}},
		{"empty type", OrderType(""), ConfigParams{BaseSize: "1"}},
		{"missing base size", OrderTypeMarket, ConfigParams{}},
		{"limit gtd without end time", OrderTypeLimitGTD, ConfigParams{BaseSize: "1", LimitPrice: "1.0000"}},
		{"stop limit gtd without end time", OrderTypeStopLimitGTD, ConfigParams{BaseSize: "1", LimitPrice: "1.000", StopPrice: "1.100"}},
		{"bracket gtd without end time", OrderTypeBracketGTD, ConfigParams{BaseSize: "1", LimitPrice: "1.0000"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := BuildOrderConfig(tc.orderType, tc.params)
			if err == nil {
				t.Fatalf("expected validation failure, got %#v", cfg)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestErrorInfoReasonPriority(t *testing.T) {
	cases := []struct {
		name string
		info *ErrorInfo
		want string
	}{
		{
			name: "preview failure reason wins",
			info: &ErrorInfo{
				PreviewFailureReason: "PREVIEW_INSUFFICIENT_FUND",
				Message:              "insufficient balance",
				ErrorDetails:         "details",
				Err:                  "INVALID_ORDER",
			},
			want: "PREVIEW_INSUFFICIENT_FUND",
		},
		{
			name: "message next",
			info: &ErrorInfo{Message: "insufficient balance", ErrorDetails: "details", Err: "INVALID_ORDER"},
			want: "insufficient balance",
		},
		{
			name: "error details next",
			info: &ErrorInfo{ErrorDetails: "details", Err: "INVALID_ORDER"},
			want: "details",
		},
		{
			name: "error field last",
			info: &ErrorInfo{Err: "INVALID_ORDER"},
			want: "INVALID_ORDER",
		},
		{name: "all empty", info: &ErrorInfo{}, want: "UNKNOWN"},
		{name: "nil info", info: nil, want: "UNKNOWN"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.Reason(); got != tc.want {
				t.Fatalf("Reason() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSideOpposite(t *testing.T) {
	if SideBuy.Opposite() != SideSell || SideSell.Opposite() != SideBuy {
		t.Fatal("side opposite mapping wrong")
	}
}

func TestNormalizeVenueErrorExtractsEmbeddedJSON(t *testing.T) {
	info := normalizeVenueError(errors.New(`coinbase {"message":"insufficient balance","preview_failure_reason":"PREVIEW_INSUFFICIENT_FUND"}`))
	if info.Reason() != "PREVIEW_INSUFFICIENT_FUND" {
		t.Fatalf("Reason()=%q", info.Reason())
	}
}

func TestNormalizeVenueErrorPlainText(t *testing.T) {
	info := normalizeVenueError(errors.New("connection reset"))
	if !strings.Contains(info.Reason(), "connection reset") {
		t.Fatalf("Reason()=%q", info.Reason())
	}
}
