package graph

import (
	"context"

	"github.com/geoknoesis/rdf-batch/rdf"
)

// ApplyUpdate executes a parsed update against g, one operation at a time.
// INSERT DATA goes to AddN; DELETE DATA needs g to implement Remover.
func ApplyUpdate(ctx context.Context, g Graph, update *rdf.Update) error {
	remove := func(ctx context.Context, q rdf.Quad) error {
		remover, ok := g.(Remover)
		if !ok {
			return ErrRemoveUnsupported
		}
		return remover.Remove(ctx, q)
	}
	return applyOperations(ctx, update, g.AddN, remove)
}

func applyOperations(
	ctx context.Context,
	update *rdf.Update,
	insert func(context.Context, []rdf.Quad) error,
	remove func(context.Context, rdf.Quad) error,
) error {
	for _, op := range update.Operations {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch op.Kind {
		case rdf.UpdateInsertData:
			if len(op.Quads) == 0 {
				continue
			}
			if err := insert(ctx, op.Quads); err != nil {
				return err
			}
		case rdf.UpdateDeleteData:
			for _, q := range op.Quads {
				if err := remove(ctx, q); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
