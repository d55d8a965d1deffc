// oreon/defense · watchthelight <wtl>

// Package loader turns raw telemetry tables into canonical host-event and
// flow records.
package loader

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/oreonproject/detect/internal/model"
	"github.com/oreonproject/detect/internal/schema"
	"github.com/oreonproject/detect/internal/table"
)

// Default input locations, relative to the working directory.
const (
	DefaultHostEventsPath = "data/real/sysmon_sample.csv"
	DefaultFlowsPath      = "data/real/cicflows_sample.csv"
)

// Canonical host-event field names.
const (
	FieldTimestamp   = "timestamp"
	FieldUser        = "user"
	FieldCommandLine = "commandline"
	FieldEventID     = "eventid"
	FieldComputer    = "computer"
)

// Canonical flow field names.
const (
	FieldSrcIP    = "src_ip"
	FieldDstIP    = "dst_ip"
	FieldDstPort  = "dst_port"
	FieldProtocol = "protocol"
)

// HostMapping resolves process-execution columns.
var HostMapping = schema.Mapping{
	{Name: FieldTimestamp, Candidates: []string{"timestamp", "time", "timegenerated", "timecreated", "datetime"}},
	{Name: FieldUser, Candidates: []string{"user", "account", "useraccount", "username", "subjectuser"}},
	{Name: FieldCommandLine, Candidates: []string{"commandline", "cmdline", "processcommandline", "command"}},
	{Name: FieldEventID, Candidates: []string{"eventid", "event id", "id"}},
	{Name: FieldComputer, Candidates: []string{"computer", "host", "hostname"}},
}

// FlowMapping resolves network-flow columns.
var FlowMapping = schema.Mapping{
	{Name: FieldTimestamp, Candidates: []string{"timestamp", "time", "starttime", "flow start"}},
	{Name: FieldSrcIP, Candidates: []string{"src_ip", "source ip", "srcip", "sip"}},
	{Name: FieldDstIP, Candidates: []string{"dst_ip", "destination ip", "dstip", "dip"}},
	{Name: FieldDstPort, Candidates: []string{"dst_port", "destination port", "dport", "dstport", "sport"}},
	{Name: FieldProtocol, Candidates: []string{"protocol", "proto"}},
}

// HostEvents builds one canonical record per raw row.
func HostEvents(t *table.Table) []model.HostEvent {
	out := make([]model.HostEvent, 0, t.Len())
	if t == nil {
		return out
	}
	res := schema.Resolve(t.Columns, HostMapping)
	for i := range t.Rows {
		c := cells{t: t, row: i}
		out = append(out, model.HostEvent{
			Timestamp:   c.timestamp(res.Column(FieldTimestamp)),
			User:        c.str(res.Column(FieldUser)),
			CommandLine: c.str(res.Column(FieldCommandLine)),
			EventID:     c.integer(res.Column(FieldEventID)),
			Computer:    c.str(res.Column(FieldComputer)),
		})
	}
	return out
}

// Flows builds one canonical record per raw row.
func Flows(t *table.Table) []model.Flow {
	out := make([]model.Flow, 0, t.Len())
	if t == nil {
		return out
	}
	res := schema.Resolve(t.Columns, FlowMapping)
	for i := range t.Rows {
		c := cells{t: t, row: i}
		out = append(out, model.Flow{
			Timestamp: c.timestamp(res.Column(FieldTimestamp)),
			SrcIP:     c.str(res.Column(FieldSrcIP)),
			DstIP:     c.str(res.Column(FieldDstIP)),
			DstPort:   c.integer(res.Column(FieldDstPort)),
			Protocol:  c.str(res.Column(FieldProtocol)),
		})
	}
	return out
}

// LoadHostEvents reads a process-execution CSV.
// A missing file is not an error: it logs a warning and returns no records.
func LoadHostEvents(path string, logger *slog.Logger) ([]model.HostEvent, error) {
	t, err := read(path, logger, model.DatasetSysmon,
		"download Sysmon / Windows event CSV samples from https://securitydatasets.com",
		"or export on Windows: Get-WinEvent -LogName 'Microsoft-Windows-Sysmon/Operational' | Export-Csv sysmon_sample.csv -NoTypeInformation")
	if err != nil || t == nil {
		return []model.HostEvent{}, err
	}
	warnUnresolved(logger, model.DatasetSysmon, t, HostMapping)
	recs := HostEvents(t)
	logger.Info("loaded host events", "rows", len(recs), "path", path)
	return recs, nil
}

// LoadFlows reads a network-flow CSV.
// A missing file is not an error: it logs a warning and returns no records.
func LoadFlows(path string, logger *slog.Logger) ([]model.Flow, error) {
	t, err := read(path, logger, model.DatasetCICIDS2017,
		"download CIC-IDS2017 flows or CICFlowMeter output from https://www.unb.ca/cic/datasets/ids-2017.html")
	if err != nil || t == nil {
		return []model.Flow{}, err
	}
	warnUnresolved(logger, model.DatasetCICIDS2017, t, FlowMapping)
	recs := Flows(t)
	logger.Info("loaded flows", "rows", len(recs), "path", path)
	return recs, nil
}

// read returns a nil table and no error when the file is missing.
func read(path string, logger *slog.Logger, dataset string, hints ...string) (*table.Table, error) {
	t, err := table.ReadCSV(path)
	if errors.Is(err, table.ErrNotFound) {
		logger.Warn("input not found, continuing with no rows", "dataset", dataset, "path", path)
		for _, h := range hints {
			logger.Warn(h, "dataset", dataset)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dataset, err)
	}
	return t, nil
}

func warnUnresolved(logger *slog.Logger, dataset string, t *table.Table, m schema.Mapping) {
	missing := schema.Resolve(t.Columns, m).Unresolved(m)
	if len(missing) > 0 {
		logger.Warn("no source column for canonical fields", "dataset", dataset, "fields", missing)
	}
}
