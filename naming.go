package barrier

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	barrierSuffix = "_barriers.png"
	headerSuffix  = ".h"
)

var stagePattern = regexp.MustCompile(`^stage-.*_barriers\.png$`)

// OutputName returns the header filename for the stage barrier image file,
// so "stage-3_barriers.png" becomes "stage-3.h". It returns false if file
// doesn't follow the stage-*_barriers.png convention, which is case
// sensitive.
func OutputName(file string) (string, bool) {
	base := filepath.Base(file)
	if !stagePattern.MatchString(base) {
		return "", false
	}
	return strings.TrimSuffix(base, barrierSuffix) + headerSuffix, true
}

// SymbolName derives the C++ symbolic name from a filename. The directory
// and extension are removed, lowercase letters become uppercase and any
// character other than A-Z, 0-9 or _ becomes _, so "stage-3.h" becomes
// "STAGE_3". A name starting with a digit gains a leading _.
func SymbolName(file string) string {
	base := filepath.Base(file)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range strings.ToUpper(base) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	name := b.String()
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
