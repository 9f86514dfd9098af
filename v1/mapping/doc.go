// Package mapping turns Go structs into MongoDB documents and back.
//
// An Introspector reads the mongo struct tag of a type once and caches the
// resulting TypeModel: the ordered field table with logical names, stored
// keys, the identifier field, fill policies and handler bindings. The Codec
// walks that table to encode entities and decode stored documents, handing
// leaf values to a conversion.Registry.
//
//	type User struct {
//		ID        string    `mongo:",id"`
//		UserName  string
//		CreatedAt time.Time `mongo:",fill=insert"`
//	}
//
//	codec := mapping.NewCodec(mapping.NewIntrospector(mapping.SnakeCase), nil)
//	doc, err := codec.Encode(&User{UserName: "ann"}, nil) // {user_name: "ann", created_at: ...}
//
// Auto-fill values are collected per write in a FillContext by a
// MetaObjectHandler and only land in fields whose policy allows the phase.
package mapping
