package schema

import "strings"

// driverTypes narrows driver-native type tags to semantic types. Keys are
// upper-case with any length/precision suffix removed.
var driverTypes = map[string]SemanticType{
	// integer family
	"TINYINT":     Integer,
	"SMALLINT":    Integer,
	"MEDIUMINT":   Integer,
	"INT":         Integer,
	"INTEGER":     Integer,
	"INT2":        Integer,
	"INT4":        Integer,
	"SERIAL":      Integer,
	"SERIAL2":     Integer,
	"SERIAL4":     Integer,
	"SMALLSERIAL": Integer,
	"YEAR":        Integer,
	"BIGINT":      Long,
	"BIG INT":     Long,
	"INT8":        Long,
	"BIGSERIAL":   Long,
	"SERIAL8":     Long,

	// decimal / floating point
	"DECIMAL":          Decimal,
	"NUMERIC":          Decimal,
	"FLOAT":            Decimal,
	"DOUBLE":           Decimal,
	"DOUBLE PRECISION": Decimal,
	"REAL":             Decimal,
	"FLOAT4":           Decimal,
	"FLOAT8":           Decimal,
	"MONEY":            Decimal,

	// boolean
	"BIT":     Boolean,
	"BOOL":    Boolean,
	"BOOLEAN": Boolean,

	// character
	"CHAR":              String,
	"CHARACTER":         String,
	"CHARACTER VARYING": String,
	"VARCHAR":           String,
	"NCHAR":             String,
	"NVARCHAR":          String,
	"VARYING CHARACTER": String,
	"NATIVE CHARACTER":  String,
	"BPCHAR":            String,
	"TEXT":              String,
	"TINYTEXT":          String,
	"MEDIUMTEXT":        String,
	"LONGTEXT":          String,
	"CLOB":              String,
	"CITEXT":            String,
	"NAME":              String,
	"ENUM":              String,
	"SET":               String,
	"JSON":              String,
	"JSONB":             String,
	"UUID":              String,
	"XML":               String,

	// date / time
	"DATE":        DateTime,
	"DATETIME":    DateTime,
	"TIMESTAMP":   DateTime,
	"TIMESTAMPTZ": DateTime,
	"TIME":        DateTime,
	"TIMETZ":      DateTime,

	// binary
	"BINARY":     Bytes,
	"VARBINARY":  Bytes,
	"BLOB":       Bytes,
	"TINYBLOB":   Bytes,
	"MEDIUMBLOB": Bytes,
	"LONGBLOB":   Bytes,
	"BYTEA":      Bytes,
}

// ResolveType maps a driver-native type tag to a semantic type. Unrecognised
// tags resolve to Unknown.
func ResolveType(driverType string) SemanticType {
	tag, unsigned := canonicalTag(driverType)
	t, ok := driverTypes[tag]
	if !ok {
		return Unknown
	}
	// Unsigned 32-bit and 24-bit integers overflow a signed 32-bit property.
	if unsigned && t == Integer && (tag == "INT" || tag == "INTEGER" || tag == "MEDIUMINT") {
		return Long
	}
	return t
}

// ResolveColumn is ResolveType with the declared column type taken into
// account: a declared tinyint(1) is a MySQL boolean flag and resolves to
// Boolean, although drivers report it as a bare TINYINT.
func ResolveColumn(driverType, declaredType string) SemanticType {
	t := ResolveType(driverType)
	if t == Integer && isBooleanTinyInt(declaredType) {
		return Boolean
	}
	return t
}

func isBooleanTinyInt(declaredType string) bool {
	t := strings.ToUpper(strings.Join(strings.Fields(declaredType), ""))
	return strings.HasPrefix(t, "TINYINT(1)")
}

// canonicalTag upper-cases a tag, strips "(n,m)" suffixes and sign
// decorations, and reports whether the type was unsigned.
func canonicalTag(driverType string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(driverType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		rest := ""
		if j := strings.IndexByte(t[i:], ')'); j >= 0 {
			rest = t[i+j+1:]
		}
		t = t[:i] + " " + rest
	}

	unsigned := false
	words := strings.Fields(t)
	kept := words[:0]
	for _, w := range words {
		switch w {
		case "UNSIGNED":
			unsigned = true
		case "SIGNED", "ZEROFILL":
		default:
			kept = append(kept, w)
		}
	}
	t = strings.Join(kept, " ")

	t = strings.TrimSuffix(t, " WITHOUT TIME ZONE")
	if strings.HasSuffix(t, " WITH TIME ZONE") {
		t = strings.TrimSuffix(t, " WITH TIME ZONE") + "TZ"
	}
	return t, unsigned
}
