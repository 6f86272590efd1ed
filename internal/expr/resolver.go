package expr

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/model"
	"github.com/vk/optlang/internal/scalar"
)

// Resolve locates the tuple instance in item.Set matching item.Key under the
// given context.
//
// Composite keys resolve each part independently and compare the candidate
// tuple's key fields positionally; the part count must equal the schema's
// declared key-field count. Key values are compared with the three-tier
// fallback in the scalar package, because keys may arrive as int, string or
// float depending on source syntax. The first matching instance in tuple-set
// declaration order wins; no ambiguity detection is performed.
func Resolve(item *ItemFunction, env *model.Model, ctx *model.EvaluationContext) (*model.TupleInstance, error) {
	ts, ok := env.TupleSet(item.Set)
	if !ok {
		return nil, diag.Structuralf("tuple set %q not found", item.Set)
	}
	if ts.Schema == nil {
		return nil, diag.Structuralf("tuple set %q has no schema", item.Set)
	}
	keyFields := ts.Schema.KeyFields()
	if len(keyFields) == 0 {
		return nil, diag.Structuralf("tuple %q declares no key fields", ts.Schema.Name)
	}

	parts, err := keyParts(item.Key, env, ctx)
	if err != nil {
		return nil, err
	}
	if len(parts) != len(keyFields) {
		return nil, diag.Structuralf("key arity mismatch for set %q: schema %q has %d key fields, key has %d parts",
			item.Set, ts.Schema.Name, len(keyFields), len(parts))
	}

	for _, cand := range ts.Instances {
		if matchesKey(cand, keyFields, parts) {
			return cand, nil
		}
	}
	return nil, diag.Resolutionf("no tuple in set %q matches key %s", item.Set, item.Key)
}

// keyParts resolves the key expression shape into one scalar value per key
// component.
func keyParts(key Expression, env *model.Model, ctx *model.EvaluationContext) ([]cty.Value, error) {
	switch k := key.(type) {
	case *CompositeKey:
		values := make([]cty.Value, len(k.Parts))
		for i, p := range k.Parts {
			v, err := KeyValue(p, env, ctx)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return values, nil
	case *TupleKey:
		return keyParts(k.Inner, env, ctx)
	case nil:
		return nil, diag.Structuralf("item call has no key expression")
	default:
		v, err := KeyValue(key, env, ctx)
		if err != nil {
			return nil, err
		}
		return []cty.Value{v}, nil
	}
}

func matchesKey(cand *model.TupleInstance, keyFields []model.TupleField, parts []cty.Value) bool {
	for i, kf := range keyFields {
		fv, ok := cand.Get(kf.Name)
		if !ok {
			return false
		}
		if !scalar.Equal(parts[i], fv) {
			return false
		}
	}
	return true
}
