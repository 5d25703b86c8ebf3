// Package core reads the syntax layer of a PDF file: objects, indirect
// objects, streams, cross-reference sections and object streams.
//
// Objects are plain Go values satisfying [Object]: [Null], [Bool], [Int],
// [Real], [String], [Name], [Array], [Dict], [*Stream] and [IndirectRef].
// Dictionary getters such as [Dict.GetInt] never resolve references; that
// is the reader's job.
//
// [Parser] builds objects from the tokens of a [Lexer] and reads the raw
// bytes of streams, resolving an indirect /Length through a
// [ReferenceResolver] when one is set:
//
//	p := core.NewParser(f)
//	p.SetReferenceResolver(r)
//	obj, err := p.ParseIndirectObject()
//
// [XRefParser] locates startxref, reads classic tables and cross-reference
// streams, and follows the /Prev chain of incremental updates, including
// the /XRefStm stream of hybrid files. [MergeXRefTables] overlays the
// sections so the newest definition of each object wins.
//
// [Stream.Decode] applies the /Filter chain through internal/filters.
package core
