package commands

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/topickey/internal/cli/config"
	"github.com/conduit-lang/topickey/internal/cli/ui"
	"github.com/conduit-lang/topickey/pkg/keyschema"
)

type encodeOptions struct {
	typeID   string
	instance string
	set      []string
}

// encodeResult is the machine-readable output of encode
type encodeResult struct {
	Type               string `json:"type" yaml:"type"`
	Holder             string `json:"holder" yaml:"holder"`
	HasKey             bool   `json:"has_key" yaml:"has_key"`
	FixedSize          bool   `json:"fixed_size" yaml:"fixed_size"`
	ForceDigestKeyHash bool   `json:"force_digest_key_hash" yaml:"force_digest_key_hash"`
	KeyBytes           string `json:"key_bytes" yaml:"key_bytes"`
}

// NewEncodeCommand creates the encode command
func NewEncodeCommand() *cobra.Command {
	opts := &encodeOptions{}

	cmd := &cobra.Command{
		Use:   "encode [schema files...] --type <type>",
		Short: "Print the canonical key bytes of an instance",
		Long: `Register the types of the given schema files, read one instance of the
selected type and print its canonical CDR_BE key encoding in hex,
together with the has-key, fixed-size and force-digest facts.

The instance is a YAML or JSON document with one entry per field;
structured key fields are nested documents. --set assigns single
fields on top of it, using dots for nested fields. Values are parsed
as YAML scalars or flow sequences.`,
		Example: `  # Encode from an instance file
  topickey encode sensors.yaml --type Sensor --instance reading.yaml

  # Encode from flags
  topickey encode geo.yaml --type Point --set x=1 --set y=2

  # Nested and sequence key fields
  topickey encode sensors.yaml --type Sensor --set site.region=eu --set site.zone=1 --set hops=[1,2]`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()
			return runEncode(env, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.typeID, "type", "t", "", "Type to encode (required)")
	cmd.Flags().StringVarP(&opts.instance, "instance", "i", "", "YAML or JSON instance file")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "Set a field value (field=value, repeatable)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.RegisterFlagCompletionFunc("type", completeTypes)

	return cmd
}

func runEncode(env *environment, opts *encodeOptions, args []string) error {
	reg, _, err := loadRegistry(env, args)
	if err != nil {
		return err
	}

	d, err := lookup(env, reg, opts.typeID)
	if err != nil {
		return err
	}

	values, err := readInstance(opts.instance)
	if err != nil {
		return err
	}
	for _, assignment := range opts.set {
		if err := setValue(values, assignment); err != nil {
			return err
		}
	}

	key, err := d.KeyBytes(keyschema.MapSource(values))
	if err != nil {
		if errors.Is(err, keyschema.ErrInternal) {
			env.logger.Error("key encoding defect", zap.String("type", d.ID()), zap.Error(err))
		}
		return fmt.Errorf("failed to encode %s: %w", d.ID(), err)
	}

	result := encodeResult{
		Type:               d.ID(),
		Holder:             d.Holder().ID(),
		HasKey:             d.HasKey(),
		FixedSize:          d.IsFixedSize(),
		ForceDigestKeyHash: d.ForceDigestKeyHash(),
		KeyBytes:           hex.EncodeToString(key),
	}

	if env.cfg.Output.Format != config.FormatTable {
		return renderStructured(env.out, env.cfg.Output.Format, result)
	}

	table := ui.NewKeyValueTable(env.out, env.cfg.Output.NoColor)
	table.AddRow("type", result.Type)
	table.AddRow("holder", result.Holder)
	table.AddRow("has key", strconv.FormatBool(result.HasKey))
	table.AddRow("fixed size", strconv.FormatBool(result.FixedSize))
	table.AddRow("force digest", strconv.FormatBool(result.ForceDigestKeyHash))
	table.AddRow("key bytes", result.KeyBytes)
	table.AddRow("length", strconv.Itoa(len(key)))
	table.Render()
	return nil
}

// readInstance decodes an instance document; an empty path yields an
// empty instance
func readInstance(path string) (map[string]any, error) {
	values := make(map[string]any)
	if path == "" {
		return values, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read instance file: %w", err)
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse instance file %s: %w", path, err)
	}
	if values == nil {
		values = make(map[string]any)
	}
	return values, nil
}

// setValue applies one field=value assignment. Dotted field paths create
// nested documents as needed.
func setValue(values map[string]any, assignment string) error {
	path, raw, ok := strings.Cut(assignment, "=")
	if !ok || path == "" {
		return fmt.Errorf("invalid --set %q, expected field=value", assignment)
	}

	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
		value = raw
	}

	parts := strings.Split(path, ".")
	current := values
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
	return nil
}
