// Command pg_filedump displays formatted contents of PostgreSQL heap,
// index and control files.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/df7cb/pg-filedump/decode"
	"github.com/df7cb/pg-filedump/dump"
	"github.com/df7cb/pg-filedump/reader"
	"github.com/df7cb/pg-filedump/schema"
	"github.com/df7cb/pg-filedump/toast"
)

const version = "14.0"

const longHelp = `Display formatted contents of a PostgreSQL heap, index or control file.

Defaults are relative addressing, a range of the entire file and the
block size listed on block 0 in the file.

Block ranges are indexed from 0. A start block without an end block
formats the single block:

  pg_filedump -R 0 10 relfile    formats blocks 0 through 10
  pg_filedump -R 5 relfile       formats block 5 only

Tuple decoding takes a comma separated list of attribute types:

  pg_filedump -D int,varchar,text relfile

Supported types:

  bigint bigserial bool char charN date float float4 float8 int
  json macaddr name numeric oid real serial smallint smallserial text
  time timestamp timestamptz timetz uuid varchar varcharN xid xml

A trailing ~ ignores all attributes left in a tuple. The --schema
option derives the same list from a file holding a CREATE TABLE
statement instead.

Interpreting a file as pg_filenode.map ignores all other options.`

// errUsage marks option errors whose message was already printed.
var errUsage = errors.New("invalid usage")

// exitStatus carries anomalies found while formatting out to main.
// Option errors travel through errUsage instead.
var exitStatus int

type cliFlags struct {
	absolute   bool
	binary     bool
	control    bool
	noIntr     bool
	hexDump    bool
	itemDetail bool
	checksums  bool
	relMap     bool
	ignoreOld  bool
	decToast   bool
	verbose    bool
	asIndex    bool
	asHeap     bool

	attrTypes  string
	schemaFile string
	rangeStart string
	blockSize  string
	segSize    string
	segNumber  string
}

// newRootCmd builds the command around a fresh flag set. argv holds the
// raw arguments for the banner's options line, which mirrors the
// command line rather than the parsed flag state.
func newRootCmd(argv []string) *cobra.Command {
	cli := &cliFlags{}
	cmd := &cobra.Command{
		Use:           "pg_filedump [options] file",
		Short:         "display formatted contents of a PostgreSQL heap, index or control file",
		Long:          longHelp,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, cli, argv, args)
		},
	}
	f := cmd.Flags()
	f.BoolVarP(&cli.absolute, "absolute", "a", false,
		"display absolute addresses when formatting")
	f.BoolVarP(&cli.binary, "binary", "b", false,
		"display binary block images within a range")
	f.BoolVarP(&cli.control, "control", "c", false,
		"interpret the file listed as a control file")
	f.BoolVarP(&cli.noIntr, "dump", "d", false,
		"display a block content dump without interpretation")
	f.StringVarP(&cli.attrTypes, "decode", "D", "",
		"decode tuples using the given comma separated list of types")
	f.BoolVarP(&cli.hexDump, "format", "f", false,
		"display a hex dump alongside the interpreted format")
	f.BoolVarP(&cli.itemDetail, "items", "i", false,
		"display interpreted item details")
	f.BoolVarP(&cli.checksums, "checksums", "k", false,
		"verify block checksums")
	f.BoolVarP(&cli.relMap, "relmap", "m", false,
		"interpret the file as pg_filenode.map and print its mappings")
	f.StringVarP(&cli.segNumber, "segment-number", "n", "",
		"force the segment number")
	f.BoolVarP(&cli.ignoreOld, "ignore-old", "o", false,
		"do not dump old values")
	f.StringVarP(&cli.rangeStart, "range", "R", "",
		"start block to display, an optional end block follows as its own argument")
	f.StringVarP(&cli.segSize, "segment-size", "s", "",
		"force the segment size")
	f.BoolVarP(&cli.decToast, "toast", "t", false,
		"reconstruct TOAST values while decoding tuples")
	f.BoolVarP(&cli.verbose, "verbose", "v", false,
		"output additional information about TOAST relations")
	f.BoolVarP(&cli.asIndex, "index", "x", false,
		"force interpreted formatting of block items as index items")
	f.BoolVarP(&cli.asHeap, "heap", "y", false,
		"force interpreted formatting of block items as heap items")
	f.StringVarP(&cli.blockSize, "block-size", "S", "",
		"force the block size")
	f.StringVar(&cli.schemaFile, "schema", "",
		"decode tuples using the column types of a CREATE TABLE file")
	return cmd
}

func runDump(cmd *cobra.Command, cli *cliFlags, argv, args []string) error {
	w := cmd.OutOrStdout()

	if len(args) == 0 {
		if cmd.Flags().NFlag() == 0 {
			return cmd.Help()
		}
		fmt.Fprint(w, "Error: Missing file name to dump.\n")
		return errUsage
	}
	fileName := args[len(args)-1]
	extra := args[:len(args)-1]

	if cli.asIndex && cli.asHeap {
		fmt.Fprint(w, "Error: Options <x> and <y> are mutually exclusive.\n")
		return errUsage
	}
	if cli.attrTypes != "" && cli.schemaFile != "" {
		fmt.Fprint(w, "Error: Options <D> and <schema> are mutually exclusive.\n")
		return errUsage
	}

	var opts dump.Options

	// The end block rides along as a bare argument after the start
	// block, the way two values follow -R on the C tool's command line.
	hasRange := cli.rangeStart != ""
	if hasRange {
		start := optionValue(cli.rangeStart)
		if start < 0 {
			fmt.Fprintf(w, "Error: Invalid range start identifier <%s>.\n",
				cli.rangeStart)
			return errUsage
		}
		end := start
		if len(extra) > 0 {
			if n := optionValue(extra[0]); n >= 0 {
				end = n
				extra = extra[1:]
			}
		}
		if start > end {
			fmt.Fprintf(w, "Error: Requested block range start <%d> is "+
				"greater than end <%d>.\n", start, end)
			return errUsage
		}
		opts.HasRange = true
		opts.RangeStart = uint32(start)
		opts.RangeEnd = uint32(end)
	}
	if len(extra) > 0 {
		fmt.Fprintf(w, "Error: Invalid option string <%s>.\n", extra[0])
		return errUsage
	}

	if cli.blockSize != "" {
		n := optionValue(cli.blockSize)
		if n <= 0 {
			fmt.Fprintf(w, "Error: Invalid block size requested <%s>.\n",
				cli.blockSize)
			return errUsage
		}
		opts.BlockSize = n
	}
	if cli.segSize != "" {
		n := optionValue(cli.segSize)
		if n <= 0 {
			fmt.Fprintf(w, "Error: Invalid segment size requested <%s>.\n",
				cli.segSize)
			return errUsage
		}
		opts.SegmentSize = n
	}
	segNumberForced := false
	if cli.segNumber != "" {
		n := optionValue(cli.segNumber)
		if n <= 0 {
			fmt.Fprintf(w, "Error: Invalid segment number requested <%s>.\n",
				cli.segNumber)
			return errUsage
		}
		opts.SegmentNumber = uint32(n)
		segNumberForced = true
	}

	// Control file dumps accept only the hex and forced block size
	// options. Binary and uninterpreted dumps silently drop every
	// option they cannot honour.
	if cli.control {
		if cli.absolute || cli.binary || cli.noIntr || cli.checksums ||
			cli.ignoreOld || cli.decToast || hasRange ||
			cli.attrTypes != "" || cli.schemaFile != "" ||
			cli.itemDetail || cli.asIndex || cli.asHeap {
			fmt.Fprint(w, "Error: Invalid options used for Control File dump.\n"+
				"       Only options <Sf> may be used with <c>.\n")
			return errUsage
		}
	} else if cli.binary {
		cli.absolute = false
		cli.noIntr = false
		cli.hexDump = false
		cli.checksums = false
		cli.ignoreOld = false
		cli.decToast = false
		cli.itemDetail = false
		cli.asIndex = false
		cli.asHeap = false
		cli.attrTypes = ""
		cli.schemaFile = ""
	} else if cli.noIntr {
		cli.hexDump = false
		cli.checksums = false
		cli.ignoreOld = false
		cli.decToast = false
		cli.itemDetail = false
		cli.asIndex = false
		cli.asHeap = false
		cli.attrTypes = ""
		cli.schemaFile = ""
	}

	opts.Absolute = cli.absolute
	opts.Binary = cli.binary
	opts.NoInterpret = cli.noIntr
	opts.HexDump = cli.hexDump
	opts.ItemDetail = cli.itemDetail
	opts.Checksums = cli.checksums
	opts.IgnoreOld = cli.ignoreOld
	opts.Verbose = cli.verbose
	switch {
	case cli.asIndex:
		opts.FormatAs = dump.FormatIndex
	case cli.asHeap:
		opts.FormatAs = dump.FormatHeap
	}

	typeList := cli.attrTypes
	if cli.schemaFile != "" {
		def, err := schema.FromFile(cli.schemaFile)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return errUsage
		}
		typeList = def.TypeList()
	}
	if typeList != "" {
		dec, err := decode.NewDecoder(typeList)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			fmt.Fprintf(w, "Error: Invalid attribute types string <%s>.\n",
				typeList)
			return errUsage
		}
		if cli.decToast {
			dec.EnableToast(&toast.Resolver{
				Dir:     filepath.Dir(fileName),
				Verbose: cli.verbose,
			})
		}
		opts.Decoder = dec
	}

	f, err := os.Open(fileName)
	if err != nil {
		fmt.Fprintf(w, "Error: Could not open file <%s>.\n", fileName)
		return errUsage
	}
	defer f.Close()

	if !segNumberForced {
		opts.SegmentNumber = reader.SegmentNumberFromPath(fileName)
	}

	optionsUsed := ""
	if len(argv) > 1 {
		optionsUsed = strings.Join(argv[:len(argv)-1], " ")
	}

	d := dump.New(w, opts)
	switch {
	case cli.relMap:
		dump.WriteBanner(w, fileName, optionsUsed)
		exitStatus = d.DumpRelMapFile(f)
	case cli.control:
		dump.WriteBanner(w, fileName, optionsUsed)
		exitStatus = d.DumpControlFile(f)
	default:
		if !cli.binary {
			dump.WriteBanner(w, fileName, optionsUsed)
		}
		exitStatus = d.DumpFile(f)
	}
	return nil
}

// optionValue converts a token of decimal digits, returning -1 when any
// other character appears.
func optionValue(s string) int {
	if s == "" {
		return -1
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return -1
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func main() {
	cmd := newRootCmd(os.Args[1:])
	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Printf("Error: %v\n", err)
		}
		os.Exit(1)
	}
	os.Exit(exitStatus)
}
