package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecode_RejectsUnknownSchema(t *testing.T) {
	raw := []byte(`{"schema":"ORDER_PLAN_EXPORT_V2","id":"x","decision":"READY"}`)
	var exp OrderPlanExport
	err := Decode(raw, &exp)
	if !errors.Is(err, ErrUnknownSchema) {
		t.Fatalf("err=%v want ErrUnknownSchema", err)
	}
}

func TestDecode_RejectsMissingSchema(t *testing.T) {
	var plan OrderPlan
	if err := Decode([]byte(`{"plan_id":"P1"}`), &plan); !errors.Is(err, ErrUnknownSchema) {
		t.Fatalf("err=%v want ErrUnknownSchema", err)
	}
}

func TestDecode_RoundTripKeepsDecimals(t *testing.T) {
	plan := OrderPlan{
		Schema:   SchemaOrderPlan,
		PlanID:   "P1",
		Decision: PlanGenerated,
		Orders: []OrderLine{{
			Ticker:   "005930",
			Side:     SideBuy,
			Qty:      decimal.NewFromInt(10),
			PriceRef: decimal.RequireFromString("71200.5"),
		}},
	}
	raw, err := Encode(plan)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got OrderPlan
	if err := Decode(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PlanID != "P1" || len(got.Orders) != 1 {
		t.Fatalf("got=%+v", got)
	}
	if !got.Orders[0].PriceRef.Equal(decimal.RequireFromString("71200.5")) {
		t.Fatalf("price_ref=%s", got.Orders[0].PriceRef)
	}
	if !got.Orders[0].EffectiveNotional().Equal(decimal.RequireFromString("712005")) {
		t.Fatalf("notional=%s", got.Orders[0].EffectiveNotional())
	}
}

func TestParseDocType(t *testing.T) {
	if dt, ok := ParseDocType(" Manual_Execution_Record "); !ok || dt != DocRecord {
		t.Fatalf("dt=%q ok=%v", dt, ok)
	}
	if _, ok := ParseDocType("holdings"); ok {
		t.Fatalf("holdings should not parse")
	}
	if DocRecord.Disposable() || !DocDryRun.Disposable() || !DocOpsSummary.Disposable() {
		t.Fatalf("disposable flags wrong")
	}
}

func TestRecordHelpers(t *testing.T) {
	r := &ManualExecutionRecord{Items: []RecordItem{
		{Ticker: "005930", Status: ItemExecuted},
		{Ticker: "000660", Status: ItemPartial},
	}}
	if r.AllExecuted() {
		t.Fatalf("AllExecuted=true want=false")
	}
	if !r.HasPartial() {
		t.Fatalf("HasPartial=false want=true")
	}
	empty := &ManualExecutionRecord{}
	if empty.AllExecuted() {
		t.Fatalf("empty record must not count as executed")
	}
}
