package models

type TicketDecision string

const TicketGenerated TicketDecision = "GENERATED"

type ManualExecutionTicket struct {
	Schema      string         `json:"schema"`
	ID          string         `json:"id"`
	Asof        string         `json:"asof"`
	Linkage     TicketLinkage  `json:"linkage"`
	Orders      []TicketOrder  `json:"orders"`
	OutputFiles OutputFiles    `json:"output_files"`
	Decision    TicketDecision `json:"decision"`
	Reason      string         `json:"reason,omitempty"`
}

type TicketLinkage struct {
	PlanID   string `json:"plan_id"`
	ExportID string `json:"export_id,omitempty"`
}

type TicketOrder struct {
	OrderLine
	Display string `json:"display"`
}

type OutputFiles struct {
	CSVPath string `json:"csv_path"`
	MDPath  string `json:"md_path"`
}

func (ManualExecutionTicket) DocType() DocType  { return DocTicket }
func (ManualExecutionTicket) SchemaTag() string { return SchemaTicket }
