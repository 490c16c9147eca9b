// Package rpc carries the plumbing shared by the gRPC services. Messages
// are google.protobuf.Struct values, so services are described by hand
// instead of from generated stubs.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/stateful/notes/pkg/document"
)

// Handler serves one unary method of a service implementation S.
type Handler[S any] func(srv S, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

// FullMethod returns the method name as it appears on the wire.
func FullMethod(service, method string) string {
	return fmt.Sprintf("/%s/%s", service, method)
}

// Method describes a unary method for a grpc.ServiceDesc.
func Method[S any](service, name string, h Handler[S]) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return h(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(service, name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return h(srv.(S), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Invoke calls a unary method on cc.
func Invoke(ctx context.Context, cc grpc.ClientConnInterface, service, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, FullMethod(service, method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Value converts anything encoding/json can marshal into a structpb value.
func Value(v any) (*structpb.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WithStack(err)
	}
	value, err := structpb.NewValue(raw)
	return value, errors.WithStack(err)
}

// DocumentValue converts a document into its JSON tree form.
func DocumentValue(doc *document.Document) (*structpb.Value, error) {
	return Value(doc)
}

// Document reads a document field. Trees are sanitized, strings are read as
// markdown or HTML and a missing field yields the default document.
func Document(in *structpb.Struct, key string, opts ...document.Option) *document.Document {
	v, ok := in.GetFields()[key]
	if !ok || v == nil {
		return document.Default()
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return document.Default()
	case *structpb.Value_StringValue:
		return document.Deserialize(document.DetectString(kind.StringValue), opts...)
	default:
		return document.Deserialize(document.Raw{Value: v.AsInterface()}, opts...)
	}
}

// String returns a string field or "".
func String(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

// Bool returns a bool field or false.
func Bool(in *structpb.Struct, key string) bool {
	return in.GetFields()[key].GetBoolValue()
}

// Number returns a number field or 0.
func Number(in *structpb.Struct, key string) float64 {
	return in.GetFields()[key].GetNumberValue()
}

// Struct builds a message from plain fields. Values that are already
// structpb values are kept as they are.
func Struct(fields map[string]any) (*structpb.Struct, error) {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for k, v := range fields {
		if value, ok := v.(*structpb.Value); ok {
			out.Fields[k] = value
			continue
		}
		value, err := structpb.NewValue(v)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", k)
		}
		out.Fields[k] = value
	}
	return out, nil
}
