package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smith-xyz/cairo-flowscan/pkg/detectors"
	"github.com/smith-xyz/cairo-flowscan/pkg/models"
	"github.com/smith-xyz/cairo-flowscan/pkg/version"
)

// Report formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for report formats other than text, json and yaml
var ErrUnknownFormat = errors.New("unknown report format")

// Report is the complete result of one analysis run
type Report struct {
	Tool        string                 `json:"tool" yaml:"tool"`
	Version     string                 `json:"version" yaml:"version"`
	Channel     string                 `json:"channel" yaml:"channel"`
	Source      string                 `json:"source" yaml:"source"`
	GeneratedAt time.Time              `json:"generated_at" yaml:"generated_at"`
	Results     []detectors.Result     `json:"results" yaml:"results"`
	CallFlow    models.CallFlowSummary `json:"call_flow" yaml:"call_flow"`
	GraphPath   string                 `json:"graph_path,omitempty" yaml:"graph_path,omitempty"`
}

// NewReport creates a report stamped with the current version and time
func NewReport(source string, results []detectors.Result, summary models.CallFlowSummary) *Report {
	if results == nil {
		results = []detectors.Result{}
	}
	return &Report{
		Tool:        "cairo-flowscan",
		Version:     version.GetVersionWithCommit(),
		Channel:     version.Channel(),
		Source:      source,
		GeneratedAt: time.Now().UTC(),
		Results:     results,
		CallFlow:    summary,
	}
}

// Write renders the report in the requested format
func Write(w io.Writer, report *Report, format string) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return WriteText(w, report)
	case FormatJSON:
		return WriteJSON(w, report)
	case FormatYAML, "yml":
		return WriteYAML(w, report)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// WriteJSON writes an indented JSON report
func WriteJSON(w io.Writer, report *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// WriteYAML writes a YAML report
func WriteYAML(w io.Writer, report *Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		return err
	}
	return encoder.Close()
}

// WriteText writes a human-readable report listing only detectors that found something
func WriteText(w io.Writer, report *Report) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s", report.Tool, report.Version)
	if report.Channel != "" && report.Channel != version.ChannelStable {
		fmt.Fprintf(&sb, " (%s)", report.Channel)
	}
	fmt.Fprintf(&sb, ": %s\n", report.Source)

	detected := detectors.Detected(report.Results)
	for _, r := range detected {
		fmt.Fprintf(&sb, "\n[%s] %s\n", r.Impact, r.Name)
		for _, finding := range r.Findings {
			fmt.Fprintf(&sb, "  - %s\n", finding)
		}
	}

	fmt.Fprintf(&sb, "\n%d detectors run, %d detected\n", len(report.Results), len(detected))

	cf := report.CallFlow
	fmt.Fprintf(&sb, "Call flow: %d functions (%d entry points, %d imports), %d edges from %d call sites\n",
		cf.TotalFunctions, cf.EntryPoints, cf.Imports, cf.TotalEdges, cf.TotalCallSites)
	if cf.IndirectCallers > 0 {
		fmt.Fprintf(&sb, "  %d functions perform indirect calls (marked **)\n", cf.IndirectCallers)
	}
	if cf.DanglingEdges > 0 {
		fmt.Fprintf(&sb, "  %d edges point to offsets outside the disassembly\n", cf.DanglingEdges)
	}
	if report.GraphPath != "" {
		fmt.Fprintf(&sb, "Graph written to %s\n", report.GraphPath)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
