package models

type Stage string

const (
	StageNeedPlan         Stage = "NEED_PLAN"
	StageNeedHumanConfirm Stage = "NEED_HUMAN_CONFIRM"
	StageNeedTicket       Stage = "NEED_TICKET"
	StagePrepReady        Stage = "PREP_READY"
	StageDoneToday        Stage = "DONE_TODAY"
	StageDoneTodayPartial Stage = "DONE_TODAY_PARTIAL"
)

// AllStages lists stages in pipeline order.
var AllStages = []Stage{
	StageNeedPlan,
	StageNeedHumanConfirm,
	StageNeedTicket,
	StagePrepReady,
	StageDoneToday,
	StageDoneTodayPartial,
}

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarn     Severity = "WARN"
	SeverityCritical Severity = "CRITICAL"
)

type OpsSummary struct {
	Schema     string     `json:"schema"`
	Asof       string     `json:"asof"`
	ManualLoop ManualLoop `json:"manual_loop"`
	TopRisks   []Risk     `json:"top_risks"`
}

type ManualLoop struct {
	Stage      Stage         `json:"stage"`
	PlanID     string        `json:"plan_id,omitempty"`
	Export     *ExportStatus `json:"export,omitempty"`
	Prep       *PrepStatus   `json:"prep,omitempty"`
	Ticket     *TicketStatus `json:"ticket,omitempty"`
	Record     *RecordStatus `json:"record,omitempty"`
	DryRun     *DryRunStatus `json:"dry_run,omitempty"`
	NextAction NextAction    `json:"next_action"`
}

type ExportStatus struct {
	ID          string         `json:"id"`
	Asof        string         `json:"asof"`
	PlanID      string         `json:"plan_id"`
	Decision    ExportDecision `json:"decision"`
	OrdersCount int            `json:"orders_count"`
}

type PrepStatus struct {
	Asof     string       `json:"asof"`
	PlanID   string       `json:"plan_id"`
	Decision PrepDecision `json:"decision"`
	Reason   string       `json:"reason,omitempty"`
}

type TicketStatus struct {
	ID     string `json:"id"`
	Asof   string `json:"asof"`
	PlanID string `json:"plan_id"`
}

type RecordStatus struct {
	ID              string          `json:"id"`
	Asof            string          `json:"asof"`
	RecordVersion   int             `json:"record_version"`
	Decision        RecordDecision  `json:"decision"`
	ExecutionResult ExecutionResult `json:"execution_result"`
	DiffSummary     string          `json:"diff_summary,omitempty"`
}

type DryRunStatus struct {
	ID   string `json:"id"`
	Asof string `json:"asof"`
}

type NextAction struct {
	Title   string `json:"title"`
	Command string `json:"command,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type Risk struct {
	Code         string   `json:"code"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
	EvidenceRefs []string `json:"evidence_refs"`
}

func (OpsSummary) DocType() DocType  { return DocOpsSummary }
func (OpsSummary) SchemaTag() string { return SchemaOpsSummary }
