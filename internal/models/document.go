package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DocType names one document family in the store. It doubles as the
// directory and file prefix on disk.
type DocType string

const (
	DocOrderPlan       DocType = "order_plan"
	DocOrderPlanExport DocType = "order_plan_export"
	DocExecutionPrep   DocType = "execution_prep"
	DocTicket          DocType = "manual_execution_ticket"
	DocRecord          DocType = "manual_execution_record"
	DocDryRun          DocType = "dry_run_record"
	DocOpsSummary      DocType = "ops_summary"
)

const (
	SchemaOrderPlan       = "ORDER_PLAN_V1"
	SchemaOrderPlanExport = "ORDER_PLAN_EXPORT_V1"
	SchemaExecutionPrep   = "EXECUTION_PREP_V1"
	SchemaTicket          = "MANUAL_EXECUTION_TICKET_V1"
	SchemaRecord          = "MANUAL_EXECUTION_RECORD_V1"
	SchemaDryRun          = "DRY_RUN_RECORD_V1"
	SchemaOpsSummary      = "OPS_SUMMARY_V1"
)

var ErrUnknownSchema = errors.New("unknown schema")

// Document is implemented by every persisted pipeline document.
type Document interface {
	DocType() DocType
	SchemaTag() string
}

var docTypes = map[DocType]string{
	DocOrderPlan:       SchemaOrderPlan,
	DocOrderPlanExport: SchemaOrderPlanExport,
	DocExecutionPrep:   SchemaExecutionPrep,
	DocTicket:          SchemaTicket,
	DocRecord:          SchemaRecord,
	DocDryRun:          SchemaDryRun,
	DocOpsSummary:      SchemaOpsSummary,
}

// ParseDocType accepts a known document type name.
func ParseDocType(raw string) (DocType, bool) {
	t := DocType(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := docTypes[t]
	return t, ok
}

// Disposable reports whether documents of this type are derived and may be
// deleted and rebuilt without losing authoritative state.
func (t DocType) Disposable() bool {
	return t == DocDryRun || t == DocOpsSummary
}

// Decode parses raw into doc after checking the schema tag. A document
// without the expected tag is rejected instead of being read field by field.
func Decode(raw []byte, doc Document) error {
	var probe struct {
		Schema string `json:"schema"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return err
	}
	if probe.Schema != doc.SchemaTag() {
		return fmt.Errorf("%w: %q for %s", ErrUnknownSchema, probe.Schema, doc.DocType())
	}
	return json.Unmarshal(raw, doc)
}

// Encode marshals doc in the stable on-disk form.
func Encode(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
