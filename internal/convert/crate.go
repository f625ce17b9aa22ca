package convert

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jcdickinson/oxidoc/internal/ast"
	"github.com/jcdickinson/oxidoc/internal/document"
)

// Crate converts a whole crate: the flattened module tree, then the records
// of every trait member, then every struct. Trait members and structs follow
// tree order (a module's own items before its submodules').
func Crate(cx *Context, root *ast.Module) []document.Documentation {
	docs := Module(cx, root)
	docs = append(docs, treeTraitItems(cx, root)...)
	return append(docs, treeStructs(cx, root)...)
}

type subtreeDocs struct {
	module     []document.Documentation
	traitItems []document.Documentation
	structs    []document.Documentation
}

// ParallelCrate produces the same records as Crate, converting the root's
// submodules on up to workers goroutines. Each worker fills its own slot;
// the slots are stitched together in source order once all are done. The
// only error is cancellation of ctx.
func ParallelCrate(ctx context.Context, cx *Context, root *ast.Module, workers int) ([]document.Documentation, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]subtreeDocs, len(root.Mods))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range root.Mods {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sub := &root.Mods[i]
			results[i] = subtreeDocs{
				module:     Module(cx, sub),
				traitItems: treeTraitItems(cx, sub),
				structs:    treeStructs(cx, sub),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var docs []document.Documentation
	for i := range root.Consts {
		docs = append(docs, Constant(cx, &root.Consts[i]))
	}
	for i := range root.Traits {
		docs = append(docs, Trait(cx, &root.Traits[i]))
	}
	for i := range root.Fns {
		docs = append(docs, Function(cx, &root.Fns[i]))
	}
	for _, r := range results {
		docs = append(docs, r.module...)
	}
	docs = append(docs, moduleDoc(cx, root))

	for i := range root.Traits {
		docs = append(docs, TraitItems(cx, &root.Traits[i])...)
	}
	for _, r := range results {
		docs = append(docs, r.traitItems...)
	}

	for i := range root.Structs {
		docs = append(docs, Struct(cx, &root.Structs[i]))
	}
	for _, r := range results {
		docs = append(docs, r.structs...)
	}
	return docs, nil
}

func treeTraitItems(cx *Context, m *ast.Module) []document.Documentation {
	var docs []document.Documentation
	for i := range m.Traits {
		docs = append(docs, TraitItems(cx, &m.Traits[i])...)
	}
	for i := range m.Mods {
		docs = append(docs, treeTraitItems(cx, &m.Mods[i])...)
	}
	return docs
}

func treeStructs(cx *Context, m *ast.Module) []document.Documentation {
	var docs []document.Documentation
	for i := range m.Structs {
		docs = append(docs, Struct(cx, &m.Structs[i]))
	}
	for i := range m.Mods {
		docs = append(docs, treeStructs(cx, &m.Mods[i])...)
	}
	return docs
}
