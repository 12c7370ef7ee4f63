// Package types provides the shared data model for codetree.
//
// # Core Types
//
// SourceFunction is one C function definition extracted from a file, including
// the comment block that immediately precedes it:
//
//	fn := types.SourceFunction{
//	    Name:       "add",
//	    Body:       "/* sum */\nint add(int a, int b) { return a + b; }",
//	    OriginFile: "/src/math.c",
//	}
//
// FunctionTable is the global index built by a repository scan. Names are
// unique; the first definition added wins and later ones are dropped:
//
//	table := types.NewFunctionTable()
//	table.Add(fn)        // true
//	table.Add(fnAgain)   // false, first occurrence kept
//
// The table remembers insertion order so that scans, cache round trips and
// seeded sampling are reproducible.
//
// Specimen pairs a sampled function with the functions it calls directly,
// resolved by name against the same table. Its JSON form uses the field names
// functionName, source, file and calledFunctions.
package types
