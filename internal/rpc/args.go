package rpc

import (
	"fmt"

	"github.com/dmitrijs2005/usersync/internal/common"
	"google.golang.org/protobuf/types/known/structpb"
)

// Argument names used in request structs.
const (
	argUsername = "username"
	argAccount  = "account"
	argSecret   = "secret"
)

// packArgs builds a request struct from alternating key/value pairs.
func packArgs(kv ...string) *structpb.Struct {
	fields := make(map[string]*structpb.Value, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = structpb.NewStringValue(kv[i+1])
	}
	return &structpb.Struct{Fields: fields}
}

// unpackArgs returns the string values for keys in order. Every key must be
// present and hold a string.
func unpackArgs(req *structpb.Struct, keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	fields := req.GetFields()
	for i, k := range keys {
		v, ok := fields[k]
		if !ok {
			return nil, fmt.Errorf("%w: missing argument %q", common.ErrorValidation, k)
		}
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: argument %q is not a string", common.ErrorValidation, k)
		}
		out[i] = sv.StringValue
	}
	return out, nil
}

func packTuples(tuples []string) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(tuples))
	for _, t := range tuples {
		values = append(values, structpb.NewStringValue(t))
	}
	return &structpb.ListValue{Values: values}
}

// unpackTuples keeps only string entries; anything else is treated like a
// malformed tuple and dropped.
func unpackTuples(l *structpb.ListValue) []string {
	out := make([]string, 0, len(l.GetValues()))
	for _, v := range l.GetValues() {
		if sv, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			out = append(out, sv.StringValue)
		}
	}
	return out
}
