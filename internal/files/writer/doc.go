// Package writer binds a content or copy description to a reusable
// write operation.
//
// A FileWriter resolves its description, ensures the destination's parent
// directory exists and performs exactly one write per call:
//
//	w, err := writer.New(writer.Options{Write: fsgen.Text("hello")})
//	if err != nil {
//	    return err
//	}
//	err = w.WriteTo(ctx, "/tmp/x/y/file.txt")
//
// WriteTo blocks until the write finished. WriteToCallback and Start adapt
// the same pipeline to callback and channel calling conventions.
package writer
