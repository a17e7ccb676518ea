// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package devicetable

import (
	"fmt"
	"strings"
)

// Field is one matched identifier of an alias: a separator tag followed by
// either a fixed width upper case hex value or a wildcard.
type Field struct {
	Sep   string
	Value uint32
	// Digits is the hex width of the value, 2, 4 or 8 for 1, 2 and 4 byte fields.
	Digits int
	Match  bool
}

func byteField(sep string, v uint8, match bool) Field {
	return Field{Sep: sep, Value: uint32(v), Digits: 2, Match: match}
}

func wordField(sep string, v uint16, match bool) Field {
	return Field{Sep: sep, Value: uint32(v), Digits: 4, Match: match}
}

func longField(sep string, v uint32, match bool) Field {
	return Field{Sep: sep, Value: v, Digits: 8, Match: match}
}

func (f Field) write(sb *strings.Builder, last bool) {
	sb.WriteString(f.Sep)
	if !f.Match {
		sb.WriteByte('*')
		return
	}
	fmt.Fprintf(sb, "%0*X", f.Digits, f.Value)
	if last {
		sb.WriteByte('*')
	}
}

// writeFields writes fields in order, the last one terminating the pattern.
func writeFields(sb *strings.Builder, fields ...Field) {
	for i, f := range fields {
		f.write(sb, i == len(fields)-1)
	}
}
