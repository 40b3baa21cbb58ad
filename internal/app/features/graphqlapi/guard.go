package graphqlapi

import (
	"fmt"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// Guard rejects queries nested deeper than MaxDepth and, unless
// Introspection is set, any use of __schema or __type.
type Guard struct {
	MaxDepth      int
	Introspection bool
}

// Check parses query and applies the limits. A query that does not parse is
// passed through so that execution reports the syntax error.
func (g Guard) Check(query string) error {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return nil
	}

	fragments := map[string]*ast.FragmentDefinition{}
	for _, def := range doc.Definitions {
		if f, ok := def.(*ast.FragmentDefinition); ok && f.Name != nil {
			fragments[f.Name.Value] = f
		}
	}

	w := &walker{guard: g, fragments: fragments}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if err := w.selections(op.SelectionSet, 1, map[string]bool{}); err != nil {
			return err
		}
	}
	return nil
}

type walker struct {
	guard     Guard
	fragments map[string]*ast.FragmentDefinition
}

func (w *walker) selections(set *ast.SelectionSet, depth int, seen map[string]bool) error {
	if set == nil {
		return nil
	}
	for _, sel := range set.Selections {
		switch s := sel.(type) {
		case *ast.Field:
			if err := w.field(s, depth, seen); err != nil {
				return err
			}
		case *ast.InlineFragment:
			if err := w.selections(s.SelectionSet, depth, seen); err != nil {
				return err
			}
		case *ast.FragmentSpread:
			if s.Name == nil || seen[s.Name.Value] {
				continue
			}
			frag, ok := w.fragments[s.Name.Value]
			if !ok {
				continue
			}
			seen[s.Name.Value] = true
			err := w.selections(frag.SelectionSet, depth, seen)
			delete(seen, s.Name.Value)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) field(f *ast.Field, depth int, seen map[string]bool) error {
	if f.Name != nil && !w.guard.Introspection {
		switch f.Name.Value {
		case "__schema", "__type":
			return apierr.Field("query", "introspection is disabled")
		}
	}
	if w.guard.MaxDepth > 0 && depth > w.guard.MaxDepth {
		return apierr.Field("query", fmt.Sprintf("query exceeds the maximum depth of %d", w.guard.MaxDepth))
	}
	return w.selections(f.SelectionSet, depth+1, seen)
}
