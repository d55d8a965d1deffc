// oreon/defense · watchthelight <wtl>

package events

// LoadBuilder is a typed builder for loader events.
type LoadBuilder struct {
	*Builder
}

// StartLoad creates a new load event builder for one input dataset.
func StartLoad(dataset, path string) *LoadBuilder {
	b := Start(EventTypeLoad, "loader")
	b.Set(FieldDataset, dataset)
	b.Set(FieldPath, path)
	return &LoadBuilder{Builder: b}
}

// Rows sets the number of canonical records produced.
func (b *LoadBuilder) Rows(count int) *LoadBuilder {
	b.Set(FieldRows, count)
	return b
}

// RuleBuilder is a typed builder for rule evaluation events.
type RuleBuilder struct {
	*Builder
}

// StartRule creates a new rule event builder.
func StartRule(ruleName string) *RuleBuilder {
	b := Start(EventTypeRule, "rules")
	b.Set(FieldRuleName, ruleName)
	return &RuleBuilder{Builder: b}
}

// Alerts sets the number of alerts the rule produced.
func (b *RuleBuilder) Alerts(count int) *RuleBuilder {
	b.Set(FieldAlerts, count)
	return b
}

// DedupBuilder is a typed builder for the merge/dedup stage.
type DedupBuilder struct {
	*Builder
}

// StartDedup creates a new dedup event builder.
func StartDedup() *DedupBuilder {
	return &DedupBuilder{Builder: Start(EventTypeDedup, "merge")}
}

// Counts sets the row counts before and after deduplication.
func (b *DedupBuilder) Counts(before, after int) *DedupBuilder {
	b.Set(FieldAlertsBefore, before)
	b.Set(FieldAlertsAfter, after)
	return b
}

// SinkBuilder is a typed builder for output sink events.
type SinkBuilder struct {
	*Builder
}

// StartSink creates a new sink event builder.
func StartSink(kind string) *SinkBuilder {
	b := Start(EventTypeSink, "sink")
	b.Set(FieldSinkKind, kind)
	return &SinkBuilder{Builder: b}
}

// Written sets the number of alerts persisted.
func (b *SinkBuilder) Written(count int) *SinkBuilder {
	b.Set(FieldWritten, count)
	return b
}

// RunBuilder is a typed builder for the whole pipeline run.
type RunBuilder struct {
	*Builder
}

// StartRun creates a new pipeline run event builder.
// The run's operation id doubles as the run id.
func StartRun(enrichRDNS bool) *RunBuilder {
	b := Start(EventTypePipelineRun, "pipeline")
	b.Run(b.evt.OperationID)
	b.Set(FieldEnrichRDNS, enrichRDNS)
	return &RunBuilder{Builder: b}
}

// ID returns the run id to hand to the stage builders.
func (b *RunBuilder) ID() string {
	return b.evt.RunID
}

// Inputs sets the canonical record counts of both sources.
func (b *RunBuilder) Inputs(hostEvents, flows int) *RunBuilder {
	b.Set(FieldHostEvents, hostEvents)
	b.Set(FieldFlows, flows)
	return b
}

// Alerts sets the final alert count and how many are High severity.
func (b *RunBuilder) Alerts(count, high int) *RunBuilder {
	b.Set(FieldAlerts, count)
	b.Set(FieldHighSeverity, high)
	return b
}

// Reports records where the summary went and how many alerts were
// notified. An empty path means no summary was written.
func (b *RunBuilder) Reports(summaryPath string, notified int) *RunBuilder {
	if summaryPath != "" {
		b.Set(FieldSummaryPath, summaryPath)
	}
	b.Set(FieldNotifications, notified)
	return b
}
