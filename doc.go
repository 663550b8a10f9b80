// Package pgfiledump provides a Go library for formatting and decoding
// PostgreSQL heap, index and control files.
//
// The library is organized into logical groups of functionality:
//
// Core Types and Constants:
//   - format: page layout constants, infomask bits, alignment and
//     little-endian reading utilities
//
// Page Structure Components:
//   - page: page header, item identifier array, special-section
//     classification, index opaque data and block checksums
//   - tuple: heap tuple headers, index tuples, item pointers, SP-GiST
//     nodes and GIN posting lists
//
// Value Decoding:
//   - decode: tuple attribute decoding into COPY text
//   - toast: TOAST pointer resolution and chunk reassembly
//   - compress: pglz and LZ4 decompression of stored values
//   - schema: CREATE TABLE parsing into attribute type lists
//
// I/O Operations:
//   - reader: block-at-a-time reading of relation segment files
//   - control: pg_control and pg_filenode.map interpretation
//   - dump: file-level dump orchestration and output formatting
//
// Basic usage:
//
//	file, _ := os.Open("16397")
//	defer file.Close()
//
//	blockSize, _ := pgfiledump.DetectBlockSize(file)
//	rd := pgfiledump.NewReader(file, blockSize)
//	for {
//	    blk, err := rd.Next()
//	    if err != nil {
//	        break
//	    }
//	    h, _ := pgfiledump.ParseHeader(blk.Data)
//	    fmt.Println(blk.Index, h.MaxOffset())
//	}
package pgfiledump
