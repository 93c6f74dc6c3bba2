// Package parsers decodes NDJSON dump lines into records and reads the CSV
// manifest that lists expected line counts per dump.
//
// Records pulls lines from a zstream.Decoder one at a time, decodes each
// into a reused record, filters it through the record's Valid method and
// yields what is left:
//
//	dec, _ := zstream.Open("RC_2024-01.zst")
//	defer dec.Close()
//	p := parsers.New[comments.Comment](san, parsers.Options{Mode: parsers.Lenient})
//
//	for c, err := range p.Records(dec.Lines(), dec.Stats()) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(c.ID, c.NumSentences)
//	}
//
// Lines that fail to decode are counted as invalid. In Strict mode the first
// one ends the sequence with a *LineError.
package parsers
