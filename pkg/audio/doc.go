// Package audio drives an engine from outside: Renderer runs a patch
// offline into a WAV file and Player runs it live on the default output
// device. Both exchange samples with the patch's first Audio module, one
// engine block at a time.
package audio
