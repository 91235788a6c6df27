package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/topickey/pkg/keyschema"
)

func TestDeriveTable(t *testing.T) {
	schema := writeFile(t, "types.yaml", testSchemas)

	out, err := execute(t, "derive", schema)
	require.NoError(t, err)

	assert.Contains(t, out, "Point → PointKeyHolder")
	assert.Contains(t, out, "Sensor → SensorKeyHolder")
	assert.Contains(t, out, "8 bytes + 4 byte header")
	assert.Contains(t, out, "variable")
	assert.Contains(t, out, "uint32 (ordinal of enum SensorKind)")
	assert.Contains(t, out, "SiteKeyHolder")
	assert.Contains(t, out, "Sensor is registered as fixed size but its key is variable length")
	assert.NotContains(t, out, "label", "unkeyed fields are not part of the holder")
	assert.Contains(t, out, "✓ registered 3 types\n")
}

func TestDeriveJSON(t *testing.T) {
	schema := writeFile(t, "types.yaml", testSchemas)

	out, err := execute(t, "derive", schema, "-o", "json")
	require.NoError(t, err)

	var reports []keyschema.Report
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 3)

	point := reports[0]
	assert.Equal(t, "Point", point.Type)
	assert.True(t, point.HasKey)
	assert.True(t, point.FixedSize)
	assert.False(t, point.ForceDigestKeyHash)
	require.NotNil(t, point.KeySize)
	assert.Equal(t, 8, *point.KeySize)

	sensor := reports[2]
	assert.True(t, sensor.ForceDigestKeyHash)
	assert.Nil(t, sensor.KeySize)
	assert.Len(t, sensor.Fields, 3)
	assert.Len(t, sensor.Warnings, 1)
}

func TestDeriveYAML(t *testing.T) {
	schema := writeFile(t, "types.yaml", testSchemas)

	out, err := execute(t, "derive", schema, "--output", "yaml")
	require.NoError(t, err)

	var reports []keyschema.Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 3)
	assert.Equal(t, "SiteKeyHolder", reports[1].Holder)
	assert.Equal(t, "region", reports[1].Fields[0].Name)
}

func TestDeriveCBOR(t *testing.T) {
	schema := writeFile(t, "types.yaml", testSchemas)

	first, err := execute(t, "derive", schema, "-o", "cbor")
	require.NoError(t, err)
	second, err := execute(t, "derive", schema, "-o", "cbor")
	require.NoError(t, err)
	assert.Equal(t, first, second, "deterministic encoding")

	var reports []keyschema.Report
	require.NoError(t, cbor.Unmarshal([]byte(first), &reports))
	require.Len(t, reports, 3)
	assert.Equal(t, "Sensor", reports[2].Type)
	assert.True(t, reports[2].ForceDigestKeyHash)
}

func TestDeriveAcrossFiles(t *testing.T) {
	geo := writeFile(t, "geo.yaml", `
types:
  - name: Site
    fields:
      - {name: zone, type: uint16, key: true}
`)
	sensors := writeFile(t, "sensors.yaml", `
types:
  - name: Sensor
    fields:
      - {name: site, type: Site, key: true}
`)

	out, err := execute(t, "derive", geo, sensors, "-o", "json")
	require.NoError(t, err)

	var reports []keyschema.Report
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "SiteKeyHolder", reports[1].Fields[0].Encoding)

	_, err = execute(t, "derive", sensors, geo)
	assert.ErrorIs(t, err, keyschema.ErrUnresolvedKeyType)
}

func TestDeriveRejected(t *testing.T) {
	schema := writeFile(t, "bad.yaml", `
types:
  - name: Bad
    fields:
      - {name: id, type: int32, key: true}
      - {name: attrs, type: "map<string,int32>", key: true}
      - {name: items, type: "int32[0]"}
`)

	_, err := execute(t, "derive", schema)
	require.Error(t, err)
	assert.ErrorIs(t, err, keyschema.ErrInvalidSchema)

	schema = writeFile(t, "bad.yaml", `
types:
  - name: Bad
    fields:
      - {name: id, type: int32, key: true}
      - {name: attrs, type: "map<string,int32>", key: true}
      - {name: names, type: "string[2]", key: true}
`)

	_, err = execute(t, "derive", schema)
	require.Error(t, err)
	assert.ErrorIs(t, err, keyschema.ErrUnsupportedKeyFieldType)
	assert.ErrorIs(t, err, keyschema.ErrUnsupportedArrayElement)

	var display *displayError
	require.ErrorAs(t, err, &display)
	assert.Contains(t, display.message, "SCHEMA REJECTED")
	assert.Contains(t, display.message, "key derivation failed for Bad")
	assert.Contains(t, display.message, "Bad.attrs")
	assert.Contains(t, display.message, "Bad.names")
}

func TestDeriveSchemaPathsFromConfig(t *testing.T) {
	schema := writeFile(t, "types.yaml", testSchemas)
	cfg := writeFile(t, "topickey.yaml", fmt.Sprintf("schema:\n  paths:\n    - %q\noutput:\n  format: json\n", schema))

	out, err := execute(t, "derive", "--config", cfg)
	require.NoError(t, err)

	var reports []keyschema.Report
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	assert.Len(t, reports, 3)
}

func TestDeriveNoSchemaFiles(t *testing.T) {
	cfg := writeFile(t, "topickey.yaml", "log:\n  level: warn\n")

	_, err := execute(t, "derive", "--config", cfg)
	assert.ErrorContains(t, err, "no schema files given")
}

func TestDeriveDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_geo.yaml"), []byte(`
types:
  - name: Site
    fields:
      - {name: zone, type: uint16, key: true}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_sensors.yml"), []byte(`
types:
  - name: Sensor
    fields:
      - {name: site, type: Site, key: true}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("not a schema"), 0o644))

	out, err := execute(t, "derive", dir, "-o", "json")
	require.NoError(t, err)

	var reports []keyschema.Report
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "Site", reports[0].Type)
	assert.Equal(t, "Sensor", reports[1].Type)
}

// syncBuffer is a bytes.Buffer safe for concurrent use
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDeriveWatch(t *testing.T) {
	schema := writeFile(t, "types.yaml", testSchemas)

	out := &syncBuffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"derive", schema, "--watch", "-o", "json", "--no-color", "--log-level", "error"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"type": "Sensor"`)
	}, 5*time.Second, 10*time.Millisecond)

	changed := testSchemas + `
  - name: Extra
    fields:
      - {name: id, type: uint8, key: true}
`
	// Written on every poll so a write landing before the watcher is ready is retried
	require.Eventually(t, func() bool {
		if strings.Contains(out.String(), `"type": "Extra"`) {
			return true
		}
		_ = os.WriteFile(schema, []byte(changed), 0o644)
		return false
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, os.WriteFile(schema, []byte("types: [\n"), 0o644))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Error:")
	}, 5*time.Second, 10*time.Millisecond, "failures are printed and watching continues")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("derive --watch did not stop after cancel")
	}
}
