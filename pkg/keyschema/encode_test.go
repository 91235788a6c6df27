package keyschema

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var header = []byte{0x00, 0x00, 0x00, 0x00}

func withHeader(payload ...byte) []byte {
	return append(append([]byte{}, header...), payload...)
}

func mustRegister(t *testing.T, reg *Registry, s *StructSchema) *Descriptor {
	t.Helper()
	d, err := reg.Register(s)
	require.NoError(t, err)
	return d
}

func keyBytes(t *testing.T, d *Descriptor, src Source) []byte {
	t.Helper()
	out, err := d.KeyBytes(src)
	require.NoError(t, err)
	return out
}

func TestKeyBytesPoint(t *testing.T) {
	reg := NewRegistry()
	point := mustRegister(t, reg, NewStructSchema("Point",
		KeyField("x", Int32()),
		KeyField("y", Int32()),
		Field("label", Text()),
	))

	assert.True(t, point.HasKey())
	assert.False(t, point.ForceDigestKeyHash())

	got := keyBytes(t, point, MapSource{"x": int32(1), "y": int32(2), "label": "ignored"})
	assert.Equal(t, withHeader(0, 0, 0, 1, 0, 0, 0, 2), got)
}

func TestKeyBytesDeterministic(t *testing.T) {
	reg := NewRegistry()
	d := mustRegister(t, reg, NewStructSchema("Sensor",
		KeyField("site", Text()),
		KeyField("channel", Uint16()),
		Field("reading", Float64()),
	))

	first := keyBytes(t, d, MapSource{"site": "north", "channel": 7, "reading": 1.5})
	for i := 0; i < 10; i++ {
		again := keyBytes(t, d, MapSource{"site": "north", "channel": uint16(7), "reading": float64(i)})
		assert.Equal(t, first, again)
	}
}

func TestKeyBytesEmptyKey(t *testing.T) {
	reg := NewRegistry()
	d := mustRegister(t, reg, NewStructSchema("Log", Field("line", Text()), Field("n", Int32())))

	assert.False(t, d.HasKey())
	assert.False(t, d.ForceDigestKeyHash())

	assert.Equal(t, header, keyBytes(t, d, MapSource{"line": "x", "n": 1}))
	assert.Equal(t, header, keyBytes(t, d, nil))
}

func TestKeyBytesNested(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg, NewStructSchema("Inner", KeyField("a", Uint32())))
	outer := mustRegister(t, reg, NewStructSchema("Outer",
		KeyField("inner", Struct("Inner")),
		Field("other", Uint64()),
	))

	holder := outer.Holder()
	require.Equal(t, 1, holder.Len())
	assert.Equal(t, "InnerKeyHolder", holder.Fields()[0].Type.Nested.ID())

	got := keyBytes(t, outer, MapSource{
		"inner": map[string]any{"a": 5},
		"other": 9,
	})
	assert.Equal(t, withHeader(0, 0, 0, 5), got)
}

func TestKeyBytesFieldOrder(t *testing.T) {
	reg := NewRegistry()
	original := mustRegister(t, reg, NewStructSchema("A",
		KeyField("x", Int32()),
		KeyField("y", Int32()),
		Field("label", Text()),
	))
	nonKeysMoved := mustRegister(t, reg, NewStructSchema("B",
		Field("label", Text()),
		KeyField("x", Int32()),
		Field("extra", Uint64()),
		KeyField("y", Int32()),
	))
	keysSwapped := mustRegister(t, reg, NewStructSchema("C",
		KeyField("y", Int32()),
		KeyField("x", Int32()),
		Field("label", Text()),
	))

	src := MapSource{"x": 1, "y": 2, "label": "l", "extra": 3}

	assert.Equal(t, keyBytes(t, original, src), keyBytes(t, nonKeysMoved, src))
	assert.Equal(t, withHeader(0, 0, 0, 2, 0, 0, 0, 1), keyBytes(t, keysSwapped, src))
	assert.NotEqual(t, keyBytes(t, original, src), keyBytes(t, keysSwapped, src))
}

func TestKeyBytesLayout(t *testing.T) {
	reg := NewRegistry()

	t.Run("alignment and variable-length fields", func(t *testing.T) {
		d := mustRegister(t, reg, NewStructSchema("Mixed",
			KeyField("flag", Bool()),
			KeyField("id", Uint32()),
			KeyField("name", Text()),
			KeyField("seq", Sequence(Int16())),
			KeyField("tag", Array(Uint8(), 3)),
			KeyField("big", Int64()),
		))

		got := keyBytes(t, d, MapSource{
			"flag": true,
			"id":   0x0A0B0C0D,
			"name": "hi",
			"seq":  []any{1, 2},
			"tag":  []any{7, 8, 9},
			"big":  -1,
		})

		assert.Equal(t, withHeader(
			0x01, 0x00, 0x00, 0x00, // flag + pad
			0x0a, 0x0b, 0x0c, 0x0d, // id
			0x00, 0x00, 0x00, 0x03, // name length incl. NUL
			'h', 'i', 0x00, 0x00, // name + pad
			0x00, 0x00, 0x00, 0x02, // seq length
			0x00, 0x01, 0x00, 0x02, // seq
			0x07, 0x08, 0x09, 0x00, // tag + pad
			0x00, 0x00, 0x00, 0x00,
			0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, // big
		), got)
		assert.True(t, d.ForceDigestKeyHash())
	})

	t.Run("nested holders continue alignment", func(t *testing.T) {
		mustRegister(t, reg, NewStructSchema("Byte", KeyField("a", Uint8())))
		d := mustRegister(t, reg, NewStructSchema("Wrapped",
			KeyField("x", Uint8()),
			KeyField("in", Struct("Byte")),
			KeyField("y", Uint16()),
		))

		got := keyBytes(t, d, MapSource{"x": 1, "in": map[string]any{"a": 2}, "y": 3})
		assert.Equal(t, withHeader(1, 2, 0, 3), got)

		size, ok := d.Holder().FixedEncodedSize()
		require.True(t, ok)
		assert.Equal(t, 4, size)
	})

	t.Run("nested u64 pads to eight", func(t *testing.T) {
		mustRegister(t, reg, NewStructSchema("Wide", KeyField("v", Uint64())))
		d := mustRegister(t, reg, NewStructSchema("Tagged",
			KeyField("tag", Uint8()),
			KeyField("wide", Struct("Wide")),
		))

		got := keyBytes(t, d, MapSource{"tag": 1, "wide": map[string]any{"v": 0x0102030405060708}})
		assert.Equal(t, withHeader(
			1, 0, 0, 0, 0, 0, 0, 0,
			1, 2, 3, 4, 5, 6, 7, 8,
		), got)

		size, ok := d.Holder().FixedEncodedSize()
		require.True(t, ok)
		assert.Equal(t, 16, size)
	})

	t.Run("enum ordinal is u32", func(t *testing.T) {
		d := mustRegister(t, reg, NewStructSchema("Light",
			KeyEnumField("color", Enum("Color")),
			KeyField("id", Int16()),
		))

		got := keyBytes(t, d, MapSource{"color": 2, "id": 5})
		assert.Equal(t, withHeader(0, 0, 0, 2, 0, 5), got)
		assert.False(t, d.ForceDigestKeyHash())

		size, _ := d.Holder().FixedEncodedSize()
		assert.Equal(t, 6, size)
	})

	t.Run("enum marker on integer keeps declared width", func(t *testing.T) {
		d := mustRegister(t, reg, NewStructSchema("Mode",
			KeyEnumField("m", Uint8()),
			KeyEnumField("level", Int16()),
		))

		got := keyBytes(t, d, MapSource{"m": 3, "level": 7})
		assert.Equal(t, withHeader(3, 0, 0, 7), got)

		size, ok := d.Holder().FixedEncodedSize()
		require.True(t, ok)
		assert.Equal(t, 4, size)
	})

	t.Run("floats", func(t *testing.T) {
		d := mustRegister(t, reg, NewStructSchema("Gauge",
			KeyField("lo", Float32()),
			KeyField("hi", Float64()),
		))

		got := keyBytes(t, d, MapSource{"lo": 1.5, "hi": 2})
		assert.Equal(t, withHeader(
			0x3f, 0xc0, 0x00, 0x00, 0, 0, 0, 0,
			0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		), got)
	})

	t.Run("uuid string into octet array", func(t *testing.T) {
		d := mustRegister(t, reg, NewStructSchema("Device", KeyField("id", UUID())))

		got := keyBytes(t, d, MapSource{"id": "00010203-0405-0607-0809-0a0b0c0d0e0f"})
		assert.Equal(t, withHeader(0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15), got)
	})

	t.Run("empty sequence and string", func(t *testing.T) {
		d := mustRegister(t, reg, NewStructSchema("Blank",
			KeyField("s", Text()),
			KeyField("q", Sequence(Uint32())),
		))

		got := keyBytes(t, d, MapSource{"s": "", "q": []any{}})
		assert.Equal(t, withHeader(0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0), got)
	})
}

func TestKeyBytesFixedSizeMatchesEncoding(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg, NewStructSchema("Inner", KeyField("a", Uint8()), KeyField("b", Int32())))
	d := mustRegister(t, reg, NewStructSchema("Outer",
		KeyField("flag", Bool()),
		KeyField("inner", Struct("Inner")),
		KeyField("mode", Uint8()),
		KeyField("code", Array(Int16(), 3)),
		KeyField("stamp", Float64()),
	))

	got := keyBytes(t, d, MapSource{
		"flag":  false,
		"inner": map[string]any{"a": 1, "b": 2},
		"mode":  3,
		"code":  []any{4, 5, 6},
		"stamp": 7.0,
	})

	size, ok := d.Holder().FixedEncodedSize()
	require.True(t, ok)
	assert.Equal(t, size+4, len(got))
}

func TestKeyBytesConcurrent(t *testing.T) {
	reg := NewRegistry()
	d := mustRegister(t, reg, NewStructSchema("Point",
		KeyField("x", Int32()),
		KeyField("name", Text()),
	))

	src := MapSource{"x": 42, "name": "shared"}
	want := keyBytes(t, d, src)

	var wg sync.WaitGroup
	results := make([][]byte, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				out, err := d.KeyBytes(src)
				if !assert.NoError(t, err, "goroutine %d", i) {
					return
				}
				results[i] = out
			}
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, want, got, "goroutine %d", i)
	}
}

func TestKeyBytesSourceErrors(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg, NewStructSchema("Inner", KeyField("a", Uint8())))
	d := mustRegister(t, reg, NewStructSchema("Checked",
		KeyField("small", Int8()),
		KeyField("inner", Struct("Inner")),
		KeyField("tag", Array(Uint8(), 2)),
	))

	valid := func() MapSource {
		return MapSource{"small": 1, "inner": map[string]any{"a": 1}, "tag": []any{1, 2}}
	}

	_, err := d.KeyBytes(valid())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(MapSource)
	}{
		{"missing field", func(m MapSource) { delete(m, "small") }},
		{"out of range", func(m MapSource) { m["small"] = 200 }},
		{"wrong type", func(m MapSource) { m["small"] = "one" }},
		{"fractional", func(m MapSource) { m["small"] = 1.5 }},
		{"nested not a map", func(m MapSource) { m["inner"] = 3 }},
		{"nested missing field", func(m MapSource) { m["inner"] = map[string]any{} }},
		{"short array", func(m MapSource) { m["tag"] = []any{1} }},
		{"array element out of range", func(m MapSource) { m["tag"] = []any{1, 256} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := valid()
			tt.mutate(src)
			_, err := d.KeyBytes(src)
			assert.Error(t, err)
			assert.NotErrorIs(t, err, ErrInternal)
		})
	}

	t.Run("nil source with keys", func(t *testing.T) {
		_, err := d.KeyBytes(nil)
		assert.Error(t, err)
	})
}

func TestEncodeKeyDefects(t *testing.T) {
	h := mustBuild(t, nil, NewStructSchema("Point", KeyField("x", Int32()), KeyField("n", Text())))

	_, err := EncodeKey(&HolderValue{schema: h, values: []any{int64(1), "n"}})
	assert.ErrorIs(t, err, ErrInternal)

	_, err = EncodeKey(&HolderValue{schema: h, values: []any{int32(1)}})
	assert.ErrorIs(t, err, ErrInternal)

	_, err = EncodeKey(nil)
	assert.ErrorIs(t, err, ErrInternal)

	out, err := EncodeKey(&HolderValue{schema: h, values: []any{int32(1), "n"}})
	require.NoError(t, err)
	assert.Equal(t, withHeader(0, 0, 0, 1, 0, 0, 0, 2, 'n', 0), out)
	assert.Equal(t, len(out), cap(out))
}
