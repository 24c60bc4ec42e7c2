package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"manualexec/internal/artifacts"
	"manualexec/internal/docstore"
	"manualexec/internal/metrics"
	"manualexec/internal/models"
)

var ticketCSVHeader = []string{"ticker", "side", "qty", "price_ref", "notional", "reason", "display"}

// TicketGenerator turns a confirmed export into the broker-facing order list
// plus CSV and Markdown files for the operator.
type TicketGenerator struct {
	Base
	Artifacts artifacts.Store
	Currency  string
}

func (g *TicketGenerator) Generate(ctx context.Context, c Confirm) (*models.ManualExecutionTicket, error) {
	if err := requireConfirm(c, "ticket regenerate"); err != nil {
		return nil, err
	}
	var exp models.OrderPlanExport
	found, err := g.load(ctx, &exp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(models.DocOrderPlanExport)
	}
	if exp.Decision != models.ExportReady {
		return nil, newError(CodeNotReady, describeExport(&exp), nil)
	}

	var prep models.ExecutionPrep
	found, err = g.load(ctx, &prep)
	if err != nil {
		return nil, err
	}
	switch {
	case !found:
		return nil, newError(CodeNotReady, "no execution prep; run prepare with the export token first", nil)
	case prep.Decision != models.PrepReady:
		return nil, newError(CodeNotReady, fmt.Sprintf("latest prep is %s (%s)", prep.Decision, prep.Reason), nil)
	case prep.Source.PlanID != exp.Source.PlanID:
		return nil, newError(CodeNotReady, fmt.Sprintf("prep plan %s does not match export plan %s", prep.Source.PlanID, exp.Source.PlanID), nil)
	case !tokensEqual(prep.Source.ConfirmToken, exp.HumanConfirm.ConfirmToken):
		return nil, newError(CodeNotReady, "prep was confirmed against a superseded export", nil)
	}

	now := g.Clock.Now()
	ticket := &models.ManualExecutionTicket{
		Schema: models.SchemaTicket,
		ID:     uuid.NewString(),
		Asof:   asof(now),
		Linkage: models.TicketLinkage{
			PlanID:   exp.Source.PlanID,
			ExportID: exp.ID,
		},
		Orders:   make([]models.TicketOrder, 0, len(exp.Orders)),
		Decision: models.TicketGenerated,
		Reason:   "READY_FOR_EXECUTION",
	}
	for _, o := range exp.Orders {
		ticket.Orders = append(ticket.Orders, models.TicketOrder{OrderLine: o, Display: g.display(o)})
	}

	csvBody, err := renderTicketCSV(ticket.Orders)
	if err != nil {
		return nil, newError(CodeIO, "render ticket csv", err)
	}
	csvInfo, err := g.Artifacts.Put(ctx, ticket.ID+".csv", csvBody, "text/csv; charset=utf-8")
	if err != nil {
		return nil, newError(CodeIO, "write ticket csv", err)
	}
	mdInfo, err := g.Artifacts.Put(ctx, ticket.ID+".md", renderTicketMarkdown(ticket), "text/markdown; charset=utf-8")
	if err != nil {
		return nil, newError(CodeIO, "write ticket markdown", err)
	}
	ticket.OutputFiles = models.OutputFiles{CSVPath: csvInfo.Location, MDPath: mdInfo.Location}

	if _, err := g.save(ctx, ticket, docstore.PutOptions{At: now}); err != nil {
		return nil, err
	}
	metrics.ObserveOperation("ticket", string(ticket.Decision))
	g.log().Info("manual execution ticket generated",
		zap.String("ticket_id", ticket.ID),
		zap.String("plan_id", ticket.Linkage.PlanID),
		zap.Int("orders", len(ticket.Orders)),
		zap.String("csv", csvInfo.Location),
	)
	return ticket, nil
}

func (g *TicketGenerator) Latest(ctx context.Context) (*models.ManualExecutionTicket, error) {
	var ticket models.ManualExecutionTicket
	found, err := g.load(ctx, &ticket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(models.DocTicket)
	}
	return &ticket, nil
}

// display renders "BUY 005930 10 EA", or the notional when no quantity was
// planned.
func (g *TicketGenerator) display(o models.OrderLine) string {
	if o.Qty.IsPositive() {
		return fmt.Sprintf("%s %s %s EA", o.Side, o.Ticker, o.Qty.String())
	}
	currency := g.Currency
	if currency == "" {
		currency = "KRW"
	}
	return fmt.Sprintf("%s %s %s %s", o.Side, o.Ticker, formatThousands(o.EffectiveNotional()), currency)
}

func formatThousands(d decimal.Decimal) string {
	s := d.Round(0).Abs().String()
	var b strings.Builder
	if d.Round(0).IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// renderTicketCSV writes a UTF-8 BOM so spreadsheet tools pick the right
// encoding for Korean reason text.
func renderTicketCSV(orders []models.TicketOrder) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")
	w := csv.NewWriter(&buf)
	if err := w.Write(ticketCSVHeader); err != nil {
		return nil, err
	}
	for _, o := range orders {
		row := []string{
			o.Ticker,
			string(o.Side),
			o.Qty.String(),
			o.PriceRef.String(),
			o.EffectiveNotional().String(),
			o.Reason,
			o.Display,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderTicketMarkdown(t *models.ManualExecutionTicket) []byte {
	var b strings.Builder
	b.WriteString("# Manual Execution Ticket\n\n")
	fmt.Fprintf(&b, "- **Ticket ID**: %s\n", t.ID)
	fmt.Fprintf(&b, "- **Plan ID**: %s\n", t.Linkage.PlanID)
	fmt.Fprintf(&b, "- **Export ID**: %s\n", t.Linkage.ExportID)
	fmt.Fprintf(&b, "- **AsOf**: %s\n\n", t.Asof)
	b.WriteString("## Orders to Execute\n\n")
	if len(t.Orders) == 0 {
		b.WriteString("_No orders in this plan._\n")
	} else {
		b.WriteString("| Side | Ticker | Display | Reason |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, o := range t.Orders {
			fmt.Fprintf(&b, "| %s | %s | **%s** | %s |\n", o.Side, o.Ticker, o.Display, o.Reason)
		}
	}
	b.WriteString("\n> Execute exactly as shown, then submit the results with the export's confirm token.\n")
	return []byte(b.String())
}
