// Package graph defines the sink capability set used by rdf-batch and the
// buffering decorator that sits in front of it.
//
// Copyright 2026 Geoknoesis LLC (www.geoknoesis.com)
//
// Author: Stephane Fellah (stephanef@geoknoesis.com)
// Geosemantic-AI expert with 30 years of experience
//
// Overview:
//   - Graph: the sink interface (Add, AddN, Triples, Len, Identifier), with
//     optional Conjunctive, Remover, Updater and SeqAdder capabilities.
//   - BatchAddGraph: coalesces single additions into fixed-size AddN calls.
//     The sink only ever sees full batches, plus one partial batch on Close.
//   - WithBatchAddGraph: scoped use. A nil return flushes the remainder once;
//     an error or panic discards it without touching the sink.
//   - MemoryGraph: an in-memory sink with set semantics.
//   - Load and Copy: stream statements from a document or another graph.
//
// Example:
//
//	err := graph.WithBatchAddGraph(ctx, sink, func(b *graph.BatchAddGraph) error {
//	    for _, q := range quads {
//	        if err := b.Add(ctx, q); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	}, graph.OptBufferSize(500))
//
// A BatchAddGraph is not safe for concurrent use.
package graph
