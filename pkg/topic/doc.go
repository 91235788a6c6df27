// Package topic binds Go struct types to key schemas.
//
// Key fields are declared next to the type with accessor functions
// instead of struct tags:
//
//	type Point struct {
//		X, Y  int32
//		Label string
//	}
//
//	var PointType = topic.MustDefine(registry, "Point",
//		topic.Key("x", func(p *Point) int32 { return p.X }),
//		topic.Key("y", func(p *Point) int32 { return p.Y }),
//		topic.Field[Point]("label", keyschema.Text()),
//	)
//
//	key := PointType.KeyBytes(&Point{X: 1, Y: 2})
//
// Types used as structured key fields are defined first and passed to
// KeyStruct. A Type is immutable and safe for concurrent use.
package topic
