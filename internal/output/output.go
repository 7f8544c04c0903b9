package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"ovirt-sriov/pkg/types"
)

// Format selects how a result is rendered
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s. Use: json, yaml, or text", s)
	}
}

// Write renders result to w. Empty lists are written as empty, never null.
func Write(w io.Writer, format Format, result types.Result) error {
	if result.NetworkIDs == nil {
		result.NetworkIDs = []string{}
	}
	if result.LabelIDs == nil {
		result.LabelIDs = []string{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(result)
	case FormatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("invalid format: %s", format)
	}
}

func writeText(w io.Writer, result types.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Changed:\t%t\n", result.Changed)
	fmt.Fprintf(tw, "Interface ID:\t%s\n", result.InterfaceID)
	fmt.Fprintf(tw, "VFs:\t%d/%d\n", result.VFConfig.NumberOfVFs, result.VFConfig.MaxNumberOfVFs)
	fmt.Fprintf(tw, "All networks allowed:\t%t\n", result.VFConfig.AllNetworksAllowed)
	fmt.Fprintf(tw, "Allowed networks:\t%s\n", joinOrNone(result.NetworkIDs))
	fmt.Fprintf(tw, "Labels:\t%s\n", joinOrNone(result.LabelIDs))
	return tw.Flush()
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
