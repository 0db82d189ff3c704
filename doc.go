// Package tsschema extracts a structural description of the exported surface
// of a TypeScript module. Every exported binding becomes an [Item] carrying
// its kind, a hierarchical id, its documentation comment, its source
// location and the shape of its type.
//
// # Pipeline
//
// Extraction runs in three steps:
//
//  1. Load: parse the entry file and every module it reaches through
//     relative or tsconfig-mapped imports with tree-sitter, bind their
//     declarations and exports, and build a lazy type checker over them.
//
//  2. Walk: visit the entry's exports in export order. Each symbol is
//     classified, identified, documented and located, and its type is
//     resolved into Items. Classes, interfaces, enums and object types
//     recurse into their members.
//
//  3. Select and persist: optionally filter top-level Items with a Risor
//     predicate and record the result in SQLite.
//
// # Usage
//
//	e, err := tsschema.New(tsschema.WithStore("tsschema.db"))
//	if err != nil { ... }
//	defer e.Close()
//
//	items, err := e.Gather(ctx, "src/index.ts", nil)
//	data, err := json.MarshalIndent(items, "", "  ")
//
// [Engine.GatherDir] discovers every entry module under a directory and
// merges their Items into one mapping.
//
// # Ids
//
// Ids join names with "." for instance members and "^" for static members,
// parameters and type parameters: "Point.x", "Point^origin",
// "Point^constructor^x", "identity^T".
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] reads the latest saved run:
//
//   - [QueryBuilder.Item]: one Item by id.
//   - [QueryBuilder.Kind]: every Item of a binding kind.
//   - [QueryBuilder.Children]: the members of an Item.
//   - [QueryBuilder.Search]: Items whose id matches a glob.
//   - [QueryBuilder.Summary]: Item counts per kind.
package tsschema
