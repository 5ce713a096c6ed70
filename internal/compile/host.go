package compile

// Buffer is a snapshot of the editor buffer taken on the UI thread when a
// compile is requested.
type Buffer struct {
	// Text is the whole buffer.
	Text string

	// Selections holds the text of each selected region, in order.
	Selections []string

	// FileName is the backing file on disk, or "" for an unsaved buffer.
	FileName string
}

// Content returns the text to compile: the first selected region when
// there are several regions or the only one is non-empty, otherwise the
// whole buffer.
func (b Buffer) Content() string {
	if len(b.Selections) > 1 || (len(b.Selections) == 1 && b.Selections[0] != "") {
		return b.Selections[0]
	}
	return b.Text
}

// Host is the editor collaborator. Every method is called on the UI
// goroutine only.
type Host interface {
	// OpenFile opens path in the editor and applies the given syntax.
	OpenFile(path, syntax string) error

	// NewScratch creates an unnamed, read-only scratch buffer.
	NewScratch(name string) (Scratch, error)

	// ErrorMessage shows a modal error.
	ErrorMessage(msg string)
}

// Scratch is a scratch buffer created by the host.
type Scratch interface {
	SetReadOnly(readOnly bool)
	Insert(text string) error
}

// writeScratch inserts text into s, making it writable only for the
// duration of the insert. s is read-only again on every return path.
func writeScratch(s Scratch, text string) error {
	s.SetReadOnly(false)
	defer s.SetReadOnly(true)
	return s.Insert(text)
}
