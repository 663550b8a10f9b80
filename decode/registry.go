// registry.go - The attribute type registry.
package decode

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// registryEntry binds a type tag to its attribute decoder.
type registryEntry struct {
	tag string
	fn  fieldFunc
}

// registry lists every accepted type tag. Serial variants share the
// integer decoders, and all string-like types share one varlena
// decoder since they are stored identically.
var registry = []registryEntry{
	{"smallserial", decodeSmallint},
	{"smallint", decodeSmallint},
	{"int", decodeInt},
	{"oid", decodeUint},
	{"xid", decodeUint},
	{"serial", decodeInt},
	{"bigint", decodeBigint},
	{"bigserial", decodeBigint},
	{"time", decodeTime},
	{"timetz", decodeTimetz},
	{"date", decodeDate},
	{"timestamp", decodeTimestamp},
	{"timestamptz", decodeTimestamptz},
	{"real", decodeFloat4},
	{"float4", decodeFloat4},
	{"float8", decodeFloat8},
	{"float", decodeFloat8},
	{"bool", decodeBool},
	{"uuid", decodeUUID},
	{"macaddr", decodeMacaddr},
	{"name", decodeName},
	{"numeric", decodeNumeric},
	{"char", decodeChar},
	{"~", decodeIgnore},
	{"charn", decodeString},
	{"varchar", decodeString},
	{"varcharn", decodeString},
	{"text", decodeString},
	{"json", decodeString},
	{"xml", decodeString},
}

// KnownTags returns the accepted type tags in registry order.
func KnownTags() []string {
	tags := make([]string, len(registry))
	for i, e := range registry {
		tags[i] = e.tag
	}
	return tags
}

func lookup(tag string) fieldFunc {
	for _, e := range registry {
		if e.tag == tag {
			return e.fn
		}
	}
	return nil
}

// NewDecoder builds a Decoder from a comma-separated type tag list
// such as "int,timestamp,bool,uuid". Tags match case-insensitively;
// empty list entries are skipped. An unknown tag fails construction
// with the full registry in the error text.
func NewDecoder(typeList string) (*Decoder, error) {
	d := &Decoder{}
	for _, tok := range strings.Split(typeList, ",") {
		tag := strings.ToLower(tok)
		if tag == "" {
			continue
		}
		fn := lookup(tag)
		if fn == nil {
			return nil, errors.Newf("type <%s> does not exist or is not currently supported, known types: %s",
				tag, strings.Join(KnownTags(), " "))
		}
		d.fields = append(d.fields, fn)
	}
	return d, nil
}
