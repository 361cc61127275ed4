// Command novaprova is a diagnostic CLI over the introspection state: it
// loads a target binary (or the running process itself) and lets an
// operator dump the DWARF info it found, in the various shapes state.go's
// Dump* methods produce.
package main

func main() {
	Execute()
}
