// Command pbdump decodes an arbitrary protocol buffer message with no
// schema at all, walking the wire format tag-by-tag and printing its
// field structure (including, by construction, any "unknown" fields,
// since this tool never has a descriptor to recognize fields against
// in the first place). It is grounded on the golang-protobuf
// internal/cmd/pbdump tool, trimmed of that tool's descriptor-flag
// mini-language: since this module's coded.Reader already does
// schema-free skip/decode for unknown fields, pbdump exists to drive
// exactly that path end to end from the command line.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/protoruntime/protoruntime/coded"
	"github.com/protoruntime/protoruntime/protoconfig"
	"github.com/protoruntime/protoruntime/wire"
)

func main() {
	printSource := flag.Bool("print_source", false, "print length-delimited fields that fail to parse as a submessage as a quoted Go string literal instead of a hex dump")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [INPUTS]...\n\n", filepath(os.Args[0]))
		fmt.Fprintln(os.Stderr, "Print the wire-format field structure of an encoded protocol buffer")
		fmt.Fprintln(os.Stderr, "message. No schema is required: every field is printed as \"unknown\"")
		fmt.Fprintln(os.Stderr, "field data, since this tool never has a descriptor to resolve names")
		fmt.Fprintln(os.Stderr, "or types against.")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "If no inputs are specified, the wire data is read from stdin, otherwise")
		fmt.Fprintln(os.Stderr, "the contents of each specified input file are concatenated and treated")
		fmt.Fprintln(os.Stderr, "as one message.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	buf, err := readInput(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "pbdump: %v\n", err)
		os.Exit(1)
	}

	r := coded.NewReader(buf, protoconfig.WithAliasing(true))
	if err := dumpMessage(os.Stdout, r, 0, *printSource); err != nil {
		fmt.Fprintf(os.Stderr, "pbdump: %v\n", err)
		os.Exit(1)
	}
}

func filepath(argv0 string) string {
	if i := strings.LastIndexByte(argv0, '/'); i >= 0 {
		return argv0[i+1:]
	}
	return argv0
}

func readInput(files []string) ([]byte, error) {
	if len(files) == 0 {
		return io.ReadAll(os.Stdin)
	}
	var buf []byte
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

// dumpMessage prints every field in the current frame (the whole
// input at depth 0, or the body of a length-delimited/group field at
// deeper levels), recursing into any length-delimited payload that
// itself looks like a valid nested message.
func dumpMessage(w io.Writer, r *coded.Reader, depth int, printSource bool) error {
	indent := strings.Repeat("  ", depth)
	for !r.IsAtEnd() {
		number, wt, err := r.ReadTag()
		if err != nil {
			return err
		}
		if number == 0 {
			return nil
		}
		switch wt {
		case wire.VarintType:
			v, err := r.ReadVarint()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s%d: varint %d\n", indent, number, v)
		case wire.Fixed32Type:
			v, err := r.ReadFixed32()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s%d: fixed32 0x%08x\n", indent, number, v)
		case wire.Fixed64Type:
			v, err := r.ReadFixed64()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s%d: fixed64 0x%016x\n", indent, number, v)
		case wire.BytesType:
			raw, err := r.ReadBytes(true)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s%d: bytes (%d) {\n", indent, number, len(raw))
			if !dumpAsSubmessage(w, raw, depth+1, printSource) {
				dumpAsLeaf(w, raw, depth+1, printSource)
			}
			fmt.Fprintf(w, "%s}\n", indent)
		case wire.StartGroup:
			fmt.Fprintf(w, "%s%d: group {\n", indent, number)
			if err := dumpGroup(w, r, number, depth+1, printSource); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s}\n", indent)
		default:
			return fmt.Errorf("field %d: invalid wire type %d", number, wt)
		}
	}
	return nil
}

// dumpGroup prints a legacy group body, consuming tags from the same
// Reader until the matching END_GROUP tag.
func dumpGroup(w io.Writer, r *coded.Reader, number int32, depth int, printSource bool) error {
	indent := strings.Repeat("  ", depth)
	for {
		n, wt, err := r.ReadTag()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("group %d: missing END_GROUP", number)
		}
		if wt == wire.EndGroup {
			if n != number {
				return fmt.Errorf("group %d: mismatched END_GROUP for %d", number, n)
			}
			return nil
		}
		switch wt {
		case wire.VarintType:
			v, err := r.ReadVarint()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s%d: varint %d\n", indent, n, v)
		case wire.Fixed32Type:
			v, err := r.ReadFixed32()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s%d: fixed32 0x%08x\n", indent, n, v)
		case wire.Fixed64Type:
			v, err := r.ReadFixed64()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s%d: fixed64 0x%016x\n", indent, n, v)
		case wire.BytesType:
			raw, err := r.ReadBytes(true)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s%d: bytes (%d) {\n", indent, n, len(raw))
			if !dumpAsSubmessage(w, raw, depth+1, printSource) {
				dumpAsLeaf(w, raw, depth+1, printSource)
			}
			fmt.Fprintf(w, "%s}\n", indent)
		case wire.StartGroup:
			fmt.Fprintf(w, "%s%d: group {\n", indent, n)
			if err := dumpGroup(w, r, n, depth+1, printSource); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s}\n", indent)
		default:
			return fmt.Errorf("field %d: invalid wire type %d", n, wt)
		}
	}
}

// dumpAsSubmessage attempts to parse raw as a nested message, only
// committing to that interpretation (printing it) if the whole slice
// decodes cleanly as a sequence of valid tags with no trailing
// garbage. This is the same "best-effort self-describing guess" a
// schema-free dumper has to make; there's no way to know whether a
// length-delimited field truly holds a submessage or a bare string.
func dumpAsSubmessage(w io.Writer, raw []byte, depth int, printSource bool) bool {
	if len(raw) == 0 {
		return false
	}
	var buf strings.Builder
	r := coded.NewReader(raw, protoconfig.WithAliasing(true))
	if err := dumpMessage(&buf, r, depth, printSource); err != nil {
		return false
	}
	io.WriteString(w, buf.String())
	return true
}

func dumpAsLeaf(w io.Writer, raw []byte, depth int, printSource bool) {
	indent := strings.Repeat("  ", depth)
	if printSource {
		fmt.Fprintf(w, "%s%q\n", indent, raw)
		return
	}
	fmt.Fprintf(w, "%s% x\n", indent, raw)
}
