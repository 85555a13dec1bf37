// Package buffer provides the line-indexed text buffer that inline preview
// widgets observe.
//
// The buffer stores its content as a slice of lines and reports every
// mutation to its observers as a ChangeList: an ordered sequence of Change
// records, each describing the replaced region in pre-edit coordinates and
// the lines that were inserted in its place.
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("/**\n# Title\n*/")
//
//	sub := buf.Subscribe(func(b *buffer.Buffer, changes buffer.ChangeList) {
//	    for _, c := range changes {
//	        fmt.Println(c.From, c.To, c.InsertedLineCount())
//	    }
//	})
//	defer sub.Cancel()
//
//	buf.InsertLines(0, "package main", "")
//
// Several edits can be delivered as a single notification with Batch.
//
// Thread Safety:
//
// Reads take a read lock and mutations an exclusive lock. Observers are
// invoked after the lock is released, in subscription order, so an observer
// may read the buffer while the notification fans out. Mutating the buffer
// from inside an observer is not supported.
package buffer
