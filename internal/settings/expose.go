package settings

import (
	"fmt"
	"reflect"
)

const exposeTag = "expose"

// Exposed is the client-visible view of a Config: section name to field name
// to scalar value.
type Exposed map[string]map[string]any

// Project builds the exposed view of cfg. Only fields tagged with expose, in
// sections tagged with expose, are copied; everything else is dropped. An
// exposed field that is not a scalar is an error instead of being serialized.
// cfg is never written to.
func Project(cfg *Config) (Exposed, error) {
	if cfg == nil {
		return nil, &Error{Kind: KindNotLoaded, Err: fmt.Errorf("no configuration snapshot")}
	}
	return project(reflect.ValueOf(*cfg))
}

func project(root reflect.Value) (Exposed, error) {
	out := make(Exposed)
	rt := root.Type()
	for i := 0; i < rt.NumField(); i++ {
		section, ok := rt.Field(i).Tag.Lookup(exposeTag)
		if !ok || section == "" {
			continue
		}
		sv := root.Field(i)
		if sv.Kind() != reflect.Struct {
			return nil, &Error{Kind: KindProjection,
				Err: fmt.Errorf("exposed section %q is %s, not a struct", section, sv.Kind())}
		}

		fields := make(map[string]any)
		st := sv.Type()
		for j := 0; j < st.NumField(); j++ {
			name, ok := st.Field(j).Tag.Lookup(exposeTag)
			if !ok || name == "" {
				continue
			}
			val, err := scalar(sv.Field(j))
			if err != nil {
				return nil, &Error{Kind: KindProjection,
					Err: fmt.Errorf("%s.%s: %w", section, name, err)}
			}
			fields[name] = val
		}
		out[section] = fields
	}
	return out, nil
}

func scalar(v reflect.Value) (any, error) {
	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	default:
		return nil, fmt.Errorf("type %s cannot be exposed", v.Type())
	}
}

// ExposedPaths lists the "section.field" paths Project emits for Config, in
// declaration order.
func ExposedPaths() []string {
	var paths []string
	rt := reflect.TypeOf(Config{})
	for i := 0; i < rt.NumField(); i++ {
		section, ok := rt.Field(i).Tag.Lookup(exposeTag)
		if !ok || section == "" || rt.Field(i).Type.Kind() != reflect.Struct {
			continue
		}
		st := rt.Field(i).Type
		for j := 0; j < st.NumField(); j++ {
			if name, ok := st.Field(j).Tag.Lookup(exposeTag); ok && name != "" {
				paths = append(paths, section+"."+name)
			}
		}
	}
	return paths
}
