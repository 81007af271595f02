// Package generate writes many destinations from one map of entries.
//
// A Generator turns each entry into a file writer, runs the writes
// concurrently with a bounded limit and reports progress through
// instance-scoped event listeners:
//
//	g, err := generate.New(generate.WithCwd("/srv/project"))
//	if err != nil {
//	    return err
//	}
//	g.On(generate.EventWrite, func(n generate.Notification) {
//	    fmt.Println("wrote", n.Filepath)
//	})
//	err = g.Generate(ctx, map[string]generate.Entry{
//	    "README.md":   fsgen.Text("# project"),
//	    "build":       fsgen.Directory{},
//	    "LICENSE":     generate.UseCopy(fsgen.SourcePath("templates/LICENSE")),
//	    "legacy.txt":  generate.Use(fsgen.Text("café"), generate.UseEncoding("latin1")),
//	})
//
// Every entry runs to completion even when siblings fail. A failed run
// returns a *RunError listing each failed destination.
package generate
