package models

type DryRunDecision string

const DryRunCompleted DryRunDecision = "COMPLETED"

// DryRunRecord rehearses the record step. It never carries items and is
// never counted as a trading day.
type DryRunRecord struct {
	Schema          string          `json:"schema"`
	ID              string          `json:"id"`
	Asof            string          `json:"asof"`
	Linkage         RecordLinkage   `json:"linkage"`
	Items           []RecordItem    `json:"items"`
	Decision        DryRunDecision  `json:"decision"`
	ExecutionResult ExecutionResult `json:"execution_result"`
	Reason          string          `json:"reason,omitempty"`
}

func (DryRunRecord) DocType() DocType  { return DocDryRun }
func (DryRunRecord) SchemaTag() string { return SchemaDryRun }
