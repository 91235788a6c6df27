package keyschema

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()

	d, err := reg.Register(NewStructSchema("Point", KeyField("x", Int32()), KeyField("y", Int32())))
	require.NoError(t, err)

	assert.Equal(t, "Point", d.ID())
	assert.Equal(t, "PointKeyHolder", d.Holder().ID())
	assert.True(t, d.HasKey())
	assert.False(t, d.IsFixedSize())
	assert.False(t, d.ForceDigestKeyHash())
	assert.Empty(t, d.Warnings())

	got, ok := reg.Get("Point")
	require.True(t, ok)
	assert.Same(t, d, got)

	h, ok := reg.Holder("Point")
	require.True(t, ok)
	assert.Same(t, d.Holder(), h)

	assert.True(t, reg.Exists("Point"))
	assert.False(t, reg.Exists("Missing"))
	assert.Equal(t, 1, reg.Count())
}

func TestRegistrySchemaIsCopied(t *testing.T) {
	reg := NewRegistry()
	s := NewStructSchema("Point", KeyField("x", Int32()))

	d, err := reg.Register(s)
	require.NoError(t, err)

	s.Fields[0].Name = "changed"
	assert.Equal(t, "x", d.Schema().Fields[0].Name)

	returned := d.Schema()
	returned.Fields[0].Name = "changed again"
	assert.Equal(t, "x", d.Schema().Fields[0].Name)
}

func TestRegistryDuplicate(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register(NewStructSchema("Point", KeyField("x", Int32())))
	require.NoError(t, err)

	_, err = reg.Register(NewStructSchema("Point", KeyField("y", Int64())))
	assert.ErrorIs(t, err, ErrDuplicateType)

	d, _ := reg.Get("Point")
	assert.Equal(t, "x", d.Holder().Fields()[0].Name, "first registration wins")
	assert.Equal(t, 1, reg.Count())
}

func TestRegistryFailedRegistrationStoresNothing(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Register(NewStructSchema("Bad",
		KeyField("id", Int32()),
		KeyField("attrs", Map(Text(), Int32())),
	))
	require.ErrorIs(t, err, ErrUnsupportedKeyFieldType)
	assert.Contains(t, err.Error(), "key derivation failed for Bad")

	assert.False(t, reg.Exists("Bad"))
	assert.Equal(t, 0, reg.Count())
	assert.Empty(t, reg.List())

	_, err = reg.Register(NewStructSchema("Bad", KeyField("id", Int32())))
	assert.NoError(t, err, "the identifier is free after a failed attempt")
}

func TestRegistryValidation(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Register(NewStructSchema("Dup", KeyField("x", Int32()), Field("x", Text())))
	assert.ErrorIs(t, err, ErrInvalidSchema)

	_, err = reg.Register(nil)
	assert.ErrorIs(t, err, ErrInvalidSchema)

	assert.Equal(t, 0, reg.Count())
}

func TestRegistryNestedResolution(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Register(NewStructSchema("Outer", KeyField("inner", Struct("Inner"))))
	require.ErrorIs(t, err, ErrUnresolvedKeyType)
	assert.ErrorIs(t, err, ErrUnsupportedKeyFieldType)
	assert.False(t, reg.Exists("Outer"))

	inner, err := reg.Register(NewStructSchema("Inner", KeyField("a", Uint32())))
	require.NoError(t, err)

	outer, err := reg.Register(NewStructSchema("Outer", KeyField("inner", Struct("Inner"))))
	require.NoError(t, err)
	assert.Same(t, inner.Holder(), outer.Holder().Fields()[0].Type.Nested)
}

func TestRegistryListOrder(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"Zeta", "Alpha", "Mid"} {
		_, err := reg.Register(NewStructSchema(id, KeyField("id", Int32())))
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, reg.List())

	list := reg.List()
	list[0] = "mutated"
	assert.Equal(t, "Zeta", reg.List()[0])
}

func TestRegistryFixedSize(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := NewRegistry(WithLogger(zap.New(core)))

	t.Run("fixed key", func(t *testing.T) {
		d, err := reg.RegisterFixedSize(NewStructSchema("Point", KeyField("x", Int32())))
		require.NoError(t, err)

		assert.True(t, d.IsFixedSize())
		assert.False(t, d.ForceDigestKeyHash())
		assert.Empty(t, d.Warnings())
	})

	t.Run("claim does not change digest decision", func(t *testing.T) {
		d, err := reg.RegisterFixedSize(NewStructSchema("Named", KeyField("name", Text())))
		require.NoError(t, err)

		assert.True(t, d.IsFixedSize())
		assert.True(t, d.ForceDigestKeyHash())
		require.Len(t, d.Warnings(), 1)
		assert.Contains(t, d.Warnings()[0], "Named is registered as fixed size")

		warnings := logs.FilterMessage("topic type registration warning").All()
		require.Len(t, warnings, 1)
		assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
		assert.Equal(t, "Named", warnings[0].ContextMap()["type"])
	})

	t.Run("variable key without claim", func(t *testing.T) {
		d, err := reg.Register(NewStructSchema("Path", KeyField("hops", Sequence(Uint16()))))
		require.NoError(t, err)

		assert.False(t, d.IsFixedSize())
		assert.True(t, d.ForceDigestKeyHash())
		assert.Empty(t, d.Warnings())
	})

	registered := logs.FilterMessage("registered topic type").All()
	require.Len(t, registered, 3)
	assert.Equal(t, "PointKeyHolder", registered[0].ContextMap()["holder"])
	assert.Equal(t, true, registered[1].ContextMap()["variable_length"])
}

func TestRegistryConcurrentRegistration(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register(NewStructSchema("Inner", KeyField("a", Uint8())))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("Type%d", i)
			_, _ = reg.Register(NewStructSchema(id,
				KeyField("inner", Struct("Inner")),
				KeyField("n", Int32()),
			))
			reg.Exists(id)
			reg.List()
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_, _ = reg.Register(NewStructSchema("Same", KeyField("n", Int32())))
		}
	}()
	wg.Wait()

	assert.Equal(t, 22, reg.Count())
	assert.Len(t, reg.List(), 22)
}

func TestDescriptorReport(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register(NewStructSchema("Inner", KeyField("a", Uint8())))
	require.NoError(t, err)

	fixed, err := reg.Register(NewStructSchema("Light",
		KeyEnumField("color", Enum("Color")),
		KeyField("inner", Struct("Inner")),
		Field("label", Text()),
	))
	require.NoError(t, err)

	report := fixed.Report()
	assert.Equal(t, "Light", report.Type)
	assert.Equal(t, "LightKeyHolder", report.Holder)
	assert.True(t, report.HasKey)
	assert.False(t, report.ForceDigestKeyHash)
	require.NotNil(t, report.KeySize)
	assert.Equal(t, 5, *report.KeySize)
	assert.Equal(t, []FieldReport{
		{Name: "color", Declared: "enum Color", Encoding: "uint32 (ordinal of enum Color)"},
		{Name: "inner", Declared: "Inner", Encoding: "InnerKeyHolder"},
	}, report.Fields)

	variable, err := reg.RegisterFixedSize(NewStructSchema("Named", KeyField("name", Text())))
	require.NoError(t, err)

	report = variable.Report()
	assert.Nil(t, report.KeySize)
	assert.True(t, report.FixedSize)
	assert.True(t, report.ForceDigestKeyHash)
	assert.Len(t, report.Warnings, 1)
}
