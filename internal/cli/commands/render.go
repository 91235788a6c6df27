package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/topickey/internal/cli/config"
	"github.com/conduit-lang/topickey/internal/cli/ui"
	"github.com/conduit-lang/topickey/pkg/keyschema"
)

// cborEncMode encodes with Core Deterministic Encoding so the same
// reports always produce the same bytes.
var cborEncMode cbor.EncMode

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("commands: CBOR encoder initialization failed: " + err.Error())
	}
}

// renderStructured writes v in one of the machine-readable formats
func renderStructured(w io.Writer, format string, v any) error {
	switch format {
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()

	case config.FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case config.FormatCBOR:
		data, err := cborEncMode.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode CBOR: %w", err)
		}
		_, err = w.Write(data)
		return err

	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// renderReports writes descriptor reports in the configured format
func renderReports(w io.Writer, cfg *config.Config, reports []keyschema.Report) error {
	if cfg.Output.Format != config.FormatTable {
		return renderStructured(w, cfg.Output.Format, reports)
	}

	noColor := cfg.Output.NoColor
	for _, r := range reports {
		ui.Header(w, r.Type+" → "+r.Holder, noColor)

		facts := ui.NewKeyValueTable(w, noColor)
		facts.AddRow("has key", strconv.FormatBool(r.HasKey))
		facts.AddRow("fixed size", strconv.FormatBool(r.FixedSize))
		facts.AddRow("force digest", strconv.FormatBool(r.ForceDigestKeyHash))
		if r.KeySize != nil {
			facts.AddRow("key size", fmt.Sprintf("%d bytes + 4 byte header", *r.KeySize))
		} else {
			facts.AddRow("key size", "variable")
		}
		facts.Render()

		if len(r.Fields) > 0 {
			fmt.Fprintln(w)
			table := ui.NewTable(w, []string{"FIELD", "DECLARED", "ENCODING"}, &ui.TableOptions{NoColor: noColor})
			for _, f := range r.Fields {
				table.AddRow(f.Name, f.Declared, f.Encoding)
			}
			table.Render()
		}

		for _, warning := range r.Warnings {
			fmt.Fprintln(w)
			fmt.Fprint(w, ui.Warning(warning, noColor))
		}
		fmt.Fprintln(w)
	}

	noun := "types"
	if len(reports) == 1 {
		noun = "type"
	}
	ui.WriteSuccess(w, fmt.Sprintf("registered %d %s", len(reports), noun), noColor)
	return nil
}
